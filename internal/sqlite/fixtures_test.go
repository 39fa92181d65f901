package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/internal/testutil"
	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

type Vehicle struct {
	ID        string `db:"id"`
	Type      string `db:"type"`
	Color     string `db:"color"`
	OwnerID   int    `db:"owner_id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type MotorVehicle struct {
	Vehicle `db:",squash"`
	Fuel    string `db:"fuel"`
}

type Car struct {
	MotorVehicle `db:",squash"`
	Capacity     int `db:"capacity"`
}

type Truck struct {
	MotorVehicle `db:",squash"`
}

type Bike struct {
	Vehicle `db:",squash"`
	Gears   int `db:"gears"`
}

// vehicleColumns is the table layout of vehicleDeclaration.
var vehicleColumns = []string{"id", "capacity", "color", "created_at", "fuel", "gears", "owner_id", "type", "updated_at"}

func vehicleDeclaration() types.Declaration {
	strict := true
	return types.Declaration{
		Root:          "Vehicle",
		Table:         "vehicles",
		Discriminator: "type",
		Types: []types.TypeDeclaration{
			{Name: "Vehicle", Columns: []string{"color", "owner_id"}, Children: []string{"MotorVehicle", "Bike"}},
			{Name: "MotorVehicle", Columns: []string{"fuel"}, Children: []string{"Car", "Truck"}},
			{Name: "Car", Columns: []string{"capacity"}},
			{Name: "Truck"},
			{Name: "Bike", Columns: []string{"gears"}, Strict: &strict},
		},
	}
}

func newVehicles(t *testing.T) *hierarchy.Hierarchy {
	t.Helper()
	h, err := hierarchy.New(vehicleDeclaration(),
		hierarchy.WithType("Vehicle", func() any { return &Vehicle{} }),
		hierarchy.WithType("MotorVehicle", func() any { return &MotorVehicle{} }),
		hierarchy.WithType("Car", func() any { return &Car{} }),
		hierarchy.WithType("Truck", func() any { return &Truck{} }),
		hierarchy.WithType("Bike", func() any { return &Bike{} }),
		hierarchy.WithLogger(testutil.NewTestLogger(t)),
	)
	require.NoError(t, err)
	return h
}

// setupBackend attaches a backend for the vehicle hierarchy to a temporary
// data directory and detaches it when the test ends.
func setupBackend(t *testing.T) (*Backend, types.Table) {
	t.Helper()
	return setupBackendIn(t, t.TempDir(), types.SyncImmediate)
}

func setupBackendIn(t *testing.T, dataDir, sync string) (*Backend, types.Table) {
	t.Helper()
	b, err := NewBackend(newVehicles(t), testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		SyncStrategy: sync,
	}))
	t.Cleanup(func() { b.Detach() })

	tbl, err := b.Table()
	require.NoError(t, err)
	return b, tbl
}

func newCar(fuel string, capacity int) *Car {
	c := &Car{Capacity: capacity}
	c.Fuel = fuel
	c.Color = "red"
	return c
}

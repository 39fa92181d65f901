// Tests for the SQLite backend lifecycle and the shared record table.
package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestNewBackendRejectsUnstorableHierarchies(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Declaration)
		wantErr error
	}{
		{
			name:    "no discriminator column",
			modify:  func(d *types.Declaration) { d.Discriminator = "" },
			wantErr: types.ErrMisconfigured,
		},
		{
			name: "no declared columns",
			modify: func(d *types.Declaration) {
				for i := range d.Types {
					d.Types[i].Columns = nil
				}
			},
			wantErr: types.ErrMisconfigured,
		},
		{
			name:    "table name is not an identifier",
			modify:  func(d *types.Declaration) { d.Table = "my-vehicles" },
			wantErr: types.ErrInvalidDeclaration,
		},
		{
			name:    "column name is not an identifier",
			modify:  func(d *types.Declaration) { d.Types[2].Columns = []string{"seat count"} },
			wantErr: types.ErrInvalidDeclaration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := vehicleDeclaration()
			tt.modify(&decl)
			h, err := hierarchy.New(decl)
			require.NoError(t, err)

			_, err = NewBackend(h, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLayout(t *testing.T) {
	l, err := newLayout(newVehicles(t))
	require.NoError(t, err)

	assert.Equal(t, vehicleColumns, l.columns)
	assert.Equal(t, "created_at", l.created)
	assert.Equal(t, []string{"created_at", "updated_at"}, l.touched)
	assert.Contains(t, l.createTableDDL(), "id TEXT PRIMARY KEY")
	assert.Contains(t, l.createTableDDL(), "type TEXT NOT NULL")
	assert.Equal(t, "CREATE INDEX idx_vehicles_type ON vehicles(type);", l.indexDDL())
}

func TestBackend_Attach(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b, _ := setupBackendIn(t, dir, "")

	assert.FileExists(t, filepath.Join(dir, "vehicles.db"))
	info, err := os.Stat(filepath.Join(dir, "vehicles.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b, err := NewBackend(newVehicles(t), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSQLite, SyncStrategy: "batch"}),
		types.ErrSyncStrategyUnknown)

	_, err = b.Table()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_Detach(t *testing.T) {
	b, tbl := setupBackend(t)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")

	_, err := b.Table()
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = tbl.Get("x")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = tbl.Set("", newCar("diesel", 4))
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, tbl.Delete("x"), types.ErrStoreDetached)
	_, err = tbl.Fetch(nil)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestTable_SetGet(t *testing.T) {
	_, tbl := setupBackend(t)

	id, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	rec, err := tbl.Get(id)
	require.NoError(t, err)
	car, ok := rec.(*Car)
	require.True(t, ok, "got %T", rec)

	assert.Equal(t, id, car.ID)
	assert.Equal(t, "car", car.Type)
	assert.Equal(t, "diesel", car.Fuel)
	assert.Equal(t, "red", car.Color)
	assert.Equal(t, 4, car.Capacity)
	assert.NotEmpty(t, car.CreatedAt)
	assert.Equal(t, car.CreatedAt, car.UpdatedAt)
}

func TestTable_SetUsesRecordID(t *testing.T) {
	_, tbl := setupBackend(t)

	car := newCar("petrol", 2)
	car.ID = "car-1"
	id, err := tbl.Set("", car)
	require.NoError(t, err)
	assert.Equal(t, "car-1", id)

	id, err = tbl.Set("car-2", car)
	require.NoError(t, err)
	assert.Equal(t, "car-2", id)

	all, err := tbl.Fetch(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTable_SetDropsUnknownAttributes(t *testing.T) {
	b, tbl := setupBackend(t)
	h := b.Hierarchy()

	id, err := tbl.Set("", &types.Model{
		Variant:    h.MustVariant("Car"),
		Attributes: types.BagOf("fuel", "diesel", "cruft", "junk", "gears", 3),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(b.config.DataDir, "vehicles.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), id)
	assert.NotContains(t, string(data), "cruft")
	assert.NotContains(t, string(data), "gears")

	rec, err := tbl.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "diesel", rec.(*Car).Fuel)
}

func TestTable_SetStrictVariant(t *testing.T) {
	b, tbl := setupBackend(t)

	_, err := tbl.Set("", &types.Model{
		Variant:    b.Hierarchy().MustVariant("Bike"),
		Attributes: types.BagOf("gears", 21, "fuel", "none"),
	})
	var iae *types.InvalidAttributesError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, []string{"fuel"}, iae.Keys)

	all, err := tbl.Fetch(nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTable_SetRejectsUnregisteredVariant(t *testing.T) {
	_, tbl := setupBackend(t)

	_, err := tbl.Set("", &Vehicle{Color: "blue"})
	assert.ErrorIs(t, err, types.ErrUnrecognizedType)

	_, err = tbl.Set("", struct{ Name string }{"x"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestTable_UpdatePreservesCreatedAt(t *testing.T) {
	b, tbl := setupBackend(t)

	id, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)
	_, err = b.db.Exec("UPDATE vehicles SET created_at = '2020-01-01T00:00:00Z' WHERE id = ?", id)
	require.NoError(t, err)

	rec, err := tbl.Get(id)
	require.NoError(t, err)
	car := rec.(*Car)
	car.Capacity = 7
	_, err = tbl.Set(id, car)
	require.NoError(t, err)

	rec, err = tbl.Get(id)
	require.NoError(t, err)
	car = rec.(*Car)
	assert.Equal(t, 7, car.Capacity)
	assert.Equal(t, "2020-01-01T00:00:00Z", car.CreatedAt)
	assert.NotEqual(t, car.CreatedAt, car.UpdatedAt)
}

func TestTable_ChangeVariantClearsForeignColumns(t *testing.T) {
	b, tbl := setupBackend(t)

	id, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)

	bike := &Bike{Gears: 21}
	bike.Color = "green"
	_, err = tbl.Set(id, bike)
	require.NoError(t, err)

	rec, err := tbl.Get(id)
	require.NoError(t, err)
	got, ok := rec.(*Bike)
	require.True(t, ok, "got %T", rec)
	assert.Equal(t, 21, got.Gears)

	var fuel, capacity any
	require.NoError(t, b.db.QueryRow("SELECT fuel, capacity FROM vehicles WHERE id = ?", id).Scan(&fuel, &capacity))
	assert.Nil(t, fuel)
	assert.Nil(t, capacity)
}

func TestTable_Delete(t *testing.T) {
	_, tbl := setupBackend(t)

	id, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(id))
	_, err = tbl.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, tbl.Delete(id), types.ErrNotFound)
	assert.ErrorIs(t, tbl.Delete(""), types.ErrInvalidID)
	_, err = tbl.Get("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestTable_Fetch(t *testing.T) {
	_, tbl := setupBackend(t)

	truck := &Truck{}
	truck.ID = "a-truck"
	truck.Fuel = "diesel"
	bike := &Bike{Gears: 3}
	bike.ID = "b-bike"
	car := newCar("petrol", 5)
	car.ID = "c-car"
	for _, rec := range []any{truck, bike, car} {
		_, err := tbl.Set("", rec)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter types.Filter
		want   []string
	}{
		{"empty filter matches all", nil, []string{"a-truck", "b-bike", "c-car"}},
		{"root variant matches all", types.Filter{"variant": "Vehicle"}, []string{"a-truck", "b-bike", "c-car"}},
		{"intermediate variant includes descendants", types.Filter{"variant": "MotorVehicle"}, []string{"a-truck", "c-car"}},
		{"variant by tag", types.Filter{"variant": "bike"}, []string{"b-bike"}},
		{"leaf variant", types.Filter{"variant": "Car"}, []string{"c-car"}},
		{"limit", types.Filter{"limit": 2}, []string{"a-truck", "b-bike"}},
		{"variant and limit", types.Filter{"variant": "MotorVehicle", "limit": int64(1)}, []string{"a-truck"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := tbl.Fetch(tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, rec := range recs {
				ids = append(ids, recordID(t, rec))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTable_FetchInvalidFilter(t *testing.T) {
	_, tbl := setupBackend(t)

	_, err := tbl.Fetch(types.Filter{"variant": 3})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	_, err = tbl.Fetch(types.Filter{"limit": "ten"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	_, err = tbl.Fetch(types.Filter{"variant": "Boat"})
	assert.ErrorIs(t, err, types.ErrUnknownVariant)
}

func TestPersistenceAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	b, tbl := setupBackendIn(t, dir, types.SyncImmediate)

	id, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	_, tbl = setupBackendIn(t, dir, types.SyncImmediate)
	rec, err := tbl.Get(id)
	require.NoError(t, err)
	car := rec.(*Car)
	assert.Equal(t, 4, car.Capacity)
	assert.Equal(t, "diesel", car.Fuel)
}

func TestSyncOnClose(t *testing.T) {
	dir := t.TempDir()
	b, tbl := setupBackendIn(t, dir, types.SyncOnClose)
	path := filepath.Join(dir, "vehicles.jsonl")

	_, err := tbl.Set("", newCar("diesel", 4))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "writes are deferred until Detach")

	require.NoError(t, b.Detach())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"car"`)
}

func recordID(t *testing.T, rec any) string {
	t.Helper()
	switch r := rec.(type) {
	case *Car:
		return r.ID
	case *Truck:
		return r.ID
	case *Bike:
		return r.ID
	default:
		t.Fatalf("unexpected record type %T", rec)
		return ""
	}
}

package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/internal/testutil"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Vehicle -> {MotorVehicle -> {Car, Truck, Taxi}, Bike}

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

type Taxi struct {
	MotorVehicle `db:",squash"`
}

type Bike struct {
	Vehicle `db:",squash"`
}

func vehicleDeclaration() types.Declaration {
	strict := true
	return types.Declaration{
		Root:          "Vehicle",
		Table:         "vehicles",
		Discriminator: "type",
		Types: []types.TypeDeclaration{
			{Name: "Vehicle", Columns: []string{"color", "owner_id"}, Children: []string{"MotorVehicle", "Bike"}},
			{Name: "MotorVehicle", Columns: []string{"fuel"}, Children: []string{"Car", "Truck", "Taxi"}},
			{Name: "Car", Columns: []string{"capacity"}},
			{Name: "Truck"},
			{Name: "Taxi"},
			{Name: "Bike", Strict: &strict},
		},
	}
}

func vehicleTypes() []Option {
	return []Option{
		WithType("Vehicle", func() any { return &Vehicle{} }),
		WithType("MotorVehicle", func() any { return &MotorVehicle{} }),
		WithType("Car", func() any { return &Car{} }),
		WithType("Truck", func() any { return &Truck{} }),
		WithType("Taxi", func() any { return &Taxi{} }),
		WithType("Bike", func() any { return &Bike{} }),
	}
}

func newVehicles(t *testing.T, extra ...Option) *Hierarchy {
	t.Helper()
	opts := append(vehicleTypes(), WithLogger(testutil.NewTestLogger(t)))
	opts = append(opts, extra...)
	h, err := New(vehicleDeclaration(), opts...)
	require.NoError(t, err)
	return h
}

// Video -> {MP4Video, WMVVideo}, tags overridden.

type Video struct {
	ID   string `db:"id"`
	Type string `db:"type"`
	URL  string `db:"url"`
}

type MP4Video struct {
	Video `db:",squash"`
}

type WMVVideo struct {
	Video `db:",squash"`
}

// videoType is a plain string enumeration.
type videoType string

const (
	videoTypeMP4 videoType = "mp4"
	videoTypeWMV videoType = "wmv"
)

// videoTypeEnum wraps its value the way generated enum types do.
type videoTypeEnum struct{ value videoType }

func (e videoTypeEnum) ScalarValue() any { return e.value }

func newVideos(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := New(types.Declaration{
		Root:          "Video",
		Table:         "videos",
		Discriminator: "type",
		Types: []types.TypeDeclaration{
			{Name: "Video", Columns: []string{"url"}, Children: []string{"MP4Video", "WMVVideo"}},
			{Name: "MP4Video", Tag: string(videoTypeMP4)},
			{Name: "WMVVideo", Tag: string(videoTypeWMV)},
		},
	},
		WithType("Video", func() any { return &Video{} }),
		WithType("MP4Video", func() any { return &MP4Video{} }),
		WithType("WMVVideo", func() any { return &WMVVideo{} }),
		WithLogger(testutil.NewTestLogger(t)),
	)
	require.NoError(t, err)
	return h
}

// Animal -> {Cat, Dog}, discriminated by an integer enumeration with a
// String method.

type animalKind int

const (
	animalCat animalKind = iota + 1
	animalDog
)

func (k animalKind) String() string {
	switch k {
	case animalCat:
		return "cat"
	case animalDog:
		return "dog"
	default:
		return "unknown"
	}
}

type Animal struct {
	ID   string `db:"id"`
	Type string `db:"type"`
}

type Cat struct {
	Animal `db:",squash"`
}

type Dog struct {
	Animal `db:",squash"`
}

func newAnimals(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := New(types.Declaration{
		Root:          "Animal",
		Table:         "animals",
		Discriminator: "type",
		Types: []types.TypeDeclaration{
			{Name: "Animal", Children: []string{"Cat", "Dog"}},
			{Name: "Cat"},
			{Name: "Dog"},
		},
	},
		WithType("Animal", func() any { return &Animal{} }),
		WithType("Cat", func() any { return &Cat{} }),
		WithType("Dog", func() any { return &Dog{} }),
		WithLogger(testutil.NewTestLogger(t)),
	)
	require.NoError(t, err)
	return h
}

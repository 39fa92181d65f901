// Tests for the SQL the table issues, checked against go-sqlmock.
package sqlite

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/internal/testutil"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// setupMockBackend returns an attached backend whose database is a sqlmock.
func setupMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	b, err := NewBackend(newVehicles(t), testutil.NewTestLogger(t))
	require.NoError(t, err)
	b.db = db
	b.config = types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), SyncStrategy: types.SyncOnClose}
	b.table = &table{backend: b}
	b.attached = true
	return b, mock
}

func TestFetchQueryUsesReachableTags(t *testing.T) {
	b, mock := setupMockBackend(t)

	query := "SELECT " + strings.Join(vehicleColumns, ", ") +
		" FROM vehicles WHERE vehicles.type IN (?, ?, ?) ORDER BY id LIMIT 5"
	rows := sqlmock.NewRows(vehicleColumns).
		AddRow("v1", int64(4), "red", nil, "diesel", nil, nil, "car", nil).
		AddRow("v2", nil, nil, nil, "lpg", nil, nil, "truck", nil)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("motorvehicle", "car", "truck").
		WillReturnRows(rows)

	recs, err := b.table.Fetch(types.Filter{"variant": "MotorVehicle", "limit": 5})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	car, ok := recs[0].(*Car)
	require.True(t, ok, "got %T", recs[0])
	assert.Equal(t, 4, car.Capacity)
	assert.IsType(t, &Truck{}, recs[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuery(t *testing.T) {
	b, mock := setupMockBackend(t)

	query := "SELECT " + strings.Join(vehicleColumns, ", ") + " FROM vehicles WHERE id = ?"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(vehicleColumns))

	_, err := b.table.Get("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUpsertStatement(t *testing.T) {
	b, mock := setupMockBackend(t)

	bike := &Bike{Gears: 7}
	bike.ID = "b1"
	bike.Color = "blue"

	upsert := "INSERT INTO vehicles (id, color, created_at, gears, owner_id, type, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET " +
		"capacity = NULL, color = excluded.color, fuel = NULL, gears = excluded.gears, " +
		"owner_id = excluded.owner_id, type = excluded.type, updated_at = excluded.updated_at"
	mock.ExpectExec(regexp.QuoteMeta(upsert)).
		WithArgs("b1", "blue", sqlmock.AnyArg(), 7, 0, "bike", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := b.table.Set("", bike)
	require.NoError(t, err)
	assert.Equal(t, "b1", id)
	assert.True(t, b.dirty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStatement(t *testing.T) {
	b, mock := setupMockBackend(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vehicles WHERE id = ?")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, b.table.Delete("gone"), types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package booking

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salones-cra/booking-api/internal/repository"
	"github.com/salones-cra/booking-api/internal/schedule"
)

func newServiceForTest(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewReservationService(
		db,
		schedule.DefaultRules(),
		repository.NewRoomRepo(db),
		repository.NewUserRepo(db),
		repository.NewInventoryRepo(db),
		repository.NewReservationRepo(db),
		repository.NewBlackoutRepo(db),
	)
	return svc, mock
}

func uptr(v uint64) *uint64 { return &v }

// expectSlotChecks queues the room lock and the two overlap probes that
// every create or update runs inside its transaction.
func expectSlotChecks(mock sqlmock.Sqlmock, roomCode string, booked, blocked bool) {
	mock.ExpectQuery(`SELECT code FROM rooms WHERE id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(roomCode))
	mock.ExpectQuery(`SELECT 1 FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(booked))
	if !booked {
		mock.ExpectQuery(`SELECT 1 FROM blackouts`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(blocked))
	}
}

func TestCreateReservation(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	expectSlotChecks(mock, "A", false, false)
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT created_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	// Stock withdrawal for the single requested line.
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(5))
	mock.ExpectExec(`UPDATE room_inventory SET quantity = quantity - \?`).
		WithArgs(uint32(2), uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_items`).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), CreateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
		UserID: uptr(5),
		Items:  []ItemLine{{MaterialID: 3, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), res.ID)
	require.Len(t, res.Items, 1)
	assert.Equal(t, uint64(3), res.Items[0].MaterialID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationWithShadowBlackout(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	expectSlotChecks(mock, "A", false, false)
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT created_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`SELECT username FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("mgarcia"))
	mock.ExpectExec(`INSERT INTO blackouts`).
		WithArgs(uint64(1), uint64(11), "2025-03-03 09:00:00", "2025-03-03 10:00:00", "Reserva de mgarcia", uint64(5)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), CreateInput{
		RoomID:             1,
		Date:               monday,
		Start:              schedule.MustTimeOfDay("09:00"),
		End:                schedule.MustTimeOfDay("10:00"),
		UserID:             uptr(5),
		WithShadowBlackout: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationDoubleBooked(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	expectSlotChecks(mock, "A", true, false)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
		Items:  []ItemLine{{MaterialID: 3, Quantity: 2}},
	})
	assert.ErrorIs(t, err, ErrRoomDoubleBooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationInsufficientStock(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	expectSlotChecks(mock, "A", false, false)
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT created_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	// Only one unit on the shelf; the request wants two.
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectQuery(`SELECT code FROM rooms WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("A"))
	mock.ExpectQuery(`SELECT name FROM materials WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Proyector"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
		Items:  []ItemLine{{MaterialID: 3, Quantity: 2}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	var stockErr *repository.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "A", stockErr.RoomCode)
	assert.Equal(t, "Proyector", stockErr.MaterialName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationInvalidIntervalSkipsDatabase(t *testing.T) {
	svc, mock := newServiceForTest(t)

	// No expectations: a malformed interval must be rejected before any
	// transaction is opened.
	_, err := svc.Create(context.Background(), CreateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("10:00"),
		End:    schedule.MustTimeOfDay("09:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func reservationRow(id, roomID uint64, userID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "user_id", "date", "start_time", "end_time", "created_at"}).
		AddRow(id, roomID, userID, monday, []byte("09:00:00"), []byte("10:00:00"), time.Now())
}

func TestDeleteReservationRestoresStock(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WillReturnRows(reservationRow(11, 1, 5))
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(21, 11, 3, 2))
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))
	mock.ExpectExec(`UPDATE room_inventory SET quantity = quantity \+ \?`).
		WithArgs(uint32(2), uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM blackouts WHERE reservation_id = \?`).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), 11)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReservationNotFound(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationAppliesNetDeltas(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WillReturnRows(reservationRow(11, 1, 5))
	expectSlotChecks(mock, "A", false, false)
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(21, 11, 3, 2))
	// Requesting 3 of the same material: net delta +1, not restore 2 then
	// consume 3.
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(4))
	mock.ExpectExec(`UPDATE room_inventory SET quantity = \?`).
		WithArgs(int64(3), uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservation_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_items`).
		WillReturnResult(sqlmock.NewResult(22, 1))
	mock.ExpectExec(`UPDATE reservations SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE blackouts SET room_id = \?, start_datetime = \?, end_datetime = \? WHERE reservation_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Update(context.Background(), 11, UpdateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
		Items:  []ItemLine{{MaterialID: 3, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, uint32(3), res.Items[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationInsufficientStockAborts(t *testing.T) {
	svc, mock := newServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WillReturnRows(reservationRow(11, 1, 5))
	expectSlotChecks(mock, "A", false, false)
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(21, 11, 3, 2))
	// Raising the line from 2 to 4 needs a net +2, but only one unit is
	// left on the shelf.  The whole update must roll back: no item
	// replacement, no reservation rewrite.
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectQuery(`SELECT code FROM rooms WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("A"))
	mock.ExpectQuery(`SELECT name FROM materials WHERE id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Proyector"))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 11, UpdateInput{
		RoomID: 1,
		Date:   monday,
		Start:  schedule.MustTimeOfDay("09:00"),
		End:    schedule.MustTimeOfDay("10:00"),
		Items:  []ItemLine{{MaterialID: 3, Quantity: 4}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	var stockErr *repository.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "A", stockErr.RoomCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salones-cra/booking-api/internal/repository"
)

func newBlackoutServiceForTest(t *testing.T) (*BlackoutService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewBlackoutService(
		db,
		repository.NewRoomRepo(db),
		repository.NewReservationRepo(db),
		repository.NewInventoryRepo(db),
		repository.NewBlackoutRepo(db),
	)
	return svc, mock
}

func TestBlackoutInputNormalize(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	in := BlackoutInput{Start: start}
	require.NoError(t, in.normalize())
	assert.Equal(t, start.Add(45*time.Minute), in.End)

	in = BlackoutInput{Start: start, End: start}
	assert.ErrorIs(t, in.normalize(), ErrInvalidInterval)

	in = BlackoutInput{Start: start, End: start.Add(-time.Hour)}
	assert.ErrorIs(t, in.normalize(), ErrInvalidInterval)
}

// expectVictimCancellation queues the per-reservation cascade steps: room
// lock, one stock restore, shadow removal and the reservation delete.
func expectVictimCancellation(mock sqlmock.Sqlmock, resID uint64, roomCode string) {
	mock.ExpectQuery(`SELECT code FROM rooms WHERE id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(roomCode))
	mock.ExpectQuery(`SELECT quantity FROM room_inventory`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectExec(`UPDATE room_inventory SET quantity = quantity \+ \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM blackouts WHERE reservation_id = \?`).
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).
		WithArgs(resID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateBlackoutCascades(t *testing.T) {
	svc, mock := newBlackoutServiceForTest(t)

	var published []CancelledReservation
	svc.Publish = func(c CancelledReservation) { published = append(published, c) }

	mock.ExpectBegin()
	// A global blackout overlaps two reservations in different rooms.
	mock.ExpectQuery(`FROM reservations\s+WHERE TIMESTAMP`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "date", "start_time", "end_time", "created_at"}).
			AddRow(11, 1, 5, monday, []byte("09:00:00"), []byte("10:00:00"), time.Now()).
			AddRow(12, 2, 6, monday, []byte("09:30:00"), []byte("11:00:00"), time.Now()))
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(21, 11, 3, 1))
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(22, 12, 4, 1))
	expectVictimCancellation(mock, 11, "A")
	expectVictimCancellation(mock, 12, "B")
	// The blackout row lands only after the span has been cleared.
	mock.ExpectExec(`INSERT INTO blackouts`).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	b, cancelled, err := svc.Create(context.Background(), BlackoutInput{
		Start:  start,
		End:    start.Add(2 * time.Hour),
		Reason: "Mantenimiento general",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(41), b.ID)
	assert.Equal(t, 2, cancelled)

	require.Len(t, published, 2)
	assert.Equal(t, uint64(11), published[0].ReservationID)
	assert.Equal(t, "A", published[0].RoomCode)
	assert.Equal(t, "Mantenimiento general", published[0].BlackoutReason)
	assert.Equal(t, uint64(12), published[1].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlackoutCascadeLocksRoomsInOrder(t *testing.T) {
	svc, mock := newBlackoutServiceForTest(t)

	var published []CancelledReservation
	svc.Publish = func(c CancelledReservation) { published = append(published, c) }

	mock.ExpectBegin()
	// The query returns victims in reservation-id order with their rooms
	// reversed; the cascade must still lock room 1 before room 2.
	mock.ExpectQuery(`FROM reservations\s+WHERE TIMESTAMP`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "date", "start_time", "end_time", "created_at"}).
			AddRow(11, 2, 5, monday, []byte("09:00:00"), []byte("10:00:00"), time.Now()).
			AddRow(12, 1, 6, monday, []byte("09:30:00"), []byte("11:00:00"), time.Now()))
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(21, 11, 3, 1))
	mock.ExpectQuery(`SELECT id, reservation_id, material_id, quantity FROM reservation_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "material_id", "quantity"}).
			AddRow(22, 12, 4, 1))
	expectVictimCancellation(mock, 12, "A")
	expectVictimCancellation(mock, 11, "B")
	mock.ExpectExec(`INSERT INTO blackouts`).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	_, cancelled, err := svc.Create(context.Background(), BlackoutInput{
		Start:  start,
		End:    start.Add(2 * time.Hour),
		Reason: "Fumigación",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)

	require.Len(t, published, 2)
	assert.Equal(t, uint64(12), published[0].ReservationID)
	assert.Equal(t, "A", published[0].RoomCode)
	assert.Equal(t, uint64(11), published[1].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlackoutNoVictims(t *testing.T) {
	svc, mock := newBlackoutServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations\s+WHERE TIMESTAMP`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "date", "start_time", "end_time", "created_at"}))
	mock.ExpectExec(`INSERT INTO blackouts`).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	_, cancelled, err := svc.Create(context.Background(), BlackoutInput{
		RoomID: uptr(1),
		Start:  start,
		End:    start.Add(time.Hour),
		Reason: "Reunión docente",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBlackoutRejectsShadow(t *testing.T) {
	svc, mock := newBlackoutServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM blackouts WHERE id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "reservation_id", "start_datetime", "end_datetime", "reason", "created_by", "created_at"}).
			AddRow(31, 1, 11, time.Now(), time.Now().Add(time.Hour), "Reserva de mgarcia", 5, time.Now()))
	mock.ExpectRollback()

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	_, _, err := svc.Update(context.Background(), 31, BlackoutInput{
		Start: start,
		End:   start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlackoutInvalidInterval(t *testing.T) {
	svc, mock := newBlackoutServiceForTest(t)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	_, _, err := svc.Create(context.Background(), BlackoutInput{
		Start: start,
		End:   start.Add(-time.Minute),
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

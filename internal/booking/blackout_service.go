package booking

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/salones-cra/booking-api/internal/model"
	"github.com/salones-cra/booking-api/internal/repository"
)

// DefaultBlackoutDuration is applied when an administrative blackout is
// created without an end datetime.
const DefaultBlackoutDuration = 45 * time.Minute

// CancelledReservation describes one reservation removed by a blackout
// cascade, for the event stream and the admin response.
type CancelledReservation struct {
	ReservationID  uint64
	RoomID         uint64
	RoomCode       string
	UserID         *uint64
	Date           string
	StartTime      string
	EndTime        string
	BlackoutReason string
}

// BlackoutService manages administrative blackouts.  Creating or widening
// a blackout cascades: every reservation overlapping the blocked span is
// cancelled, its materials returned to the ledger and its shadow blackout
// removed, before the blackout itself is persisted.  The whole cascade is
// one transaction.
type BlackoutService struct {
	db           *sql.DB
	rooms        *repository.RoomRepo
	reservations *repository.ReservationRepo
	inventory    *repository.InventoryRepo
	blackouts    *repository.BlackoutRepo

	// Publish, when set, is called once per cancelled reservation after
	// the cascade commits.  Publish failures are logged, never returned:
	// the cancellation already happened.
	Publish func(CancelledReservation)
}

// NewBlackoutService wires the service.
func NewBlackoutService(db *sql.DB, rooms *repository.RoomRepo, reservations *repository.ReservationRepo, inventory *repository.InventoryRepo, blackouts *repository.BlackoutRepo) *BlackoutService {
	if db == nil || rooms == nil || reservations == nil || inventory == nil || blackouts == nil {
		panic("nil dependency passed to NewBlackoutService")
	}
	return &BlackoutService{db: db, rooms: rooms, reservations: reservations, inventory: inventory, blackouts: blackouts}
}

// BlackoutInput carries an administrative blackout request.  RoomID nil
// means the blackout blocks every room.  A zero End defaults to Start plus
// DefaultBlackoutDuration.
type BlackoutInput struct {
	RoomID    *uint64
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedBy *uint64
}

func (in *BlackoutInput) normalize() error {
	if in.End.IsZero() {
		in.End = in.Start.Add(DefaultBlackoutDuration)
	}
	if !in.Start.Before(in.End) {
		return ErrInvalidInterval
	}
	return nil
}

// cascadeTx cancels every reservation overlapping [start, end) for the
// given scope: restore each line item to the ledger, drop the shadow
// blackout, delete the reservation.  Returns what was cancelled.  Rows
// are taken FOR UPDATE so a concurrent edit of one of the victims blocks
// until the cascade decides its fate.
func (s *BlackoutService) cascadeTx(ctx context.Context, tx *sql.Tx, roomID *uint64, start, end time.Time, reason string) ([]CancelledReservation, error) {
	victims, err := s.reservations.ListOverlappingSpanTx(ctx, tx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	// Victims are processed in ascending room order so the cascade acquires
	// room locks in the same order reservation writes do; otherwise two
	// concurrent multi-room operations could lock rooms in opposite orders
	// and deadlock.
	sort.Slice(victims, func(i, j int) bool {
		if victims[i].RoomID != victims[j].RoomID {
			return victims[i].RoomID < victims[j].RoomID
		}
		return victims[i].ID < victims[j].ID
	})
	cancelled := make([]CancelledReservation, 0, len(victims))
	for _, res := range victims {
		code, err := s.rooms.LockTx(ctx, tx, res.RoomID)
		if err != nil {
			return nil, err
		}
		for _, it := range res.Items {
			if err := s.inventory.RestoreTx(ctx, tx, res.RoomID, it.MaterialID, it.Quantity); err != nil {
				return nil, err
			}
		}
		if err := s.blackouts.DeleteShadowTx(ctx, tx, res.ID); err != nil {
			return nil, err
		}
		if err := s.reservations.DeleteTx(ctx, tx, res.ID); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, CancelledReservation{
			ReservationID:  res.ID,
			RoomID:         res.RoomID,
			RoomCode:       code,
			UserID:         res.UserID,
			Date:           res.Date.Format("2006-01-02"),
			StartTime:      res.StartTime.String(),
			EndTime:        res.EndTime.String(),
			BlackoutReason: reason,
		})
	}
	return cancelled, nil
}

func (s *BlackoutService) publishAll(cancelled []CancelledReservation) {
	if s.Publish == nil {
		return
	}
	for _, c := range cancelled {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("blackout: publish cancelled event panicked: %v", r)
				}
			}()
			s.Publish(c)
		}()
	}
}

// Create persists a new administrative blackout after cancelling every
// overlapping reservation.  Returns the stored blackout and how many
// reservations the cascade removed.
func (s *BlackoutService) Create(ctx context.Context, in BlackoutInput) (*model.Blackout, int, error) {
	if err := in.normalize(); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cancelled, err := s.cascadeTx(ctx, tx, in.RoomID, in.Start, in.End, in.Reason)
	if err != nil {
		return nil, 0, err
	}
	// The blackout row goes in last, once the span is clear.
	b := &model.Blackout{
		RoomID:        in.RoomID,
		StartDatetime: in.Start,
		EndDatetime:   in.End,
		Reason:        in.Reason,
		CreatedBy:     in.CreatedBy,
	}
	if err := s.blackouts.CreateTx(ctx, tx, b); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	committed = true
	s.publishAll(cancelled)
	return b, len(cancelled), nil
}

// Update rewrites an administrative blackout and re-runs the cascade over
// its new span.  Shadow blackouts belong to their reservation and cannot
// be edited here; asking for one reports ErrNotFound.
func (s *BlackoutService) Update(ctx context.Context, id uint64, in BlackoutInput) (*model.Blackout, int, error) {
	if err := in.normalize(); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.blackouts.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, 0, err
	}
	if b.IsShadow() {
		return nil, 0, repository.ErrNotFound
	}

	cancelled, err := s.cascadeTx(ctx, tx, in.RoomID, in.Start, in.End, in.Reason)
	if err != nil {
		return nil, 0, err
	}
	b.RoomID = in.RoomID
	b.StartDatetime = in.Start
	b.EndDatetime = in.End
	b.Reason = in.Reason
	if err := s.blackouts.UpdateTx(ctx, tx, &b); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	committed = true
	s.publishAll(cancelled)
	return &b, len(cancelled), nil
}

// Delete removes an administrative blackout.  Cancelled reservations stay
// cancelled; removing the blackout only reopens the span for new bookings.
func (s *BlackoutService) Delete(ctx context.Context, id uint64) error {
	return s.blackouts.Delete(ctx, id)
}

// List returns the administrative blackouts for the admin panel.
func (s *BlackoutService) List(ctx context.Context) ([]repository.BlackoutDetail, error) {
	return s.blackouts.ListAdministrative(ctx)
}

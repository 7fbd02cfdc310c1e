// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCancelledEvent is published when a blackout cascade cancels a
// reservation. It contains enough information for downstream consumers to
// log or notify the affected teacher without querying the primary database.
type ReservationCancelledEvent struct {
	ReservationID  uint64  `json:"reservation_id"`
	RoomID         uint64  `json:"room_id"`
	RoomCode       string  `json:"room_code"`
	UserID         *uint64 `json:"user_id,omitempty"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	BlackoutReason string  `json:"blackout_reason"`
	CancelledAt    string  `json:"cancelled_at"`
}

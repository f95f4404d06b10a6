package model

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	uid := uint64(7)

	cases := []struct {
		name string
		seat ShowSeat
		want SeatStatus
	}{
		{"available", ShowSeat{Status: SeatAvailable}, SeatAvailable},
		{"booked", ShowSeat{Status: SeatBooked}, SeatBooked},
		{"locked active", ShowSeat{Status: SeatLocked, LockedBy: &uid, LockedUntil: &future}, SeatLocked},
		{"locked expired", ShowSeat{Status: SeatLocked, LockedBy: &uid, LockedUntil: &past}, SeatAvailable},
		{"locked expiring this instant", ShowSeat{Status: SeatLocked, LockedBy: &uid, LockedUntil: &now}, SeatAvailable},
	}
	for _, tc := range cases {
		if got := tc.seat.EffectiveStatus(now); got != tc.want {
			t.Errorf("%s: EffectiveStatus = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLockedByUser(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	future := now.Add(5 * time.Minute)
	past := now.Add(-time.Second)
	holder := uint64(42)
	other := uint64(99)

	active := ShowSeat{Status: SeatLocked, LockedBy: &holder, LockedUntil: &future}
	if !active.LockedByUser(holder, now) {
		t.Error("holder of an active lock should pass LockedByUser")
	}
	if active.LockedByUser(other, now) {
		t.Error("non-holder should not pass LockedByUser")
	}

	expired := ShowSeat{Status: SeatLocked, LockedBy: &holder, LockedUntil: &past}
	if expired.LockedByUser(holder, now) {
		t.Error("expired lock should not pass LockedByUser even for its holder")
	}

	booked := ShowSeat{Status: SeatBooked, LockedBy: &holder, LockedUntil: &future}
	if booked.LockedByUser(holder, now) {
		t.Error("booked seat should not pass LockedByUser")
	}
}

package models

import "testing"

func TestSeatsClaimed(t *testing.T) {
	// special needs alone never adds a seat; a companion always does
	if got := SeatsClaimed(false); got != 1 {
		t.Fatalf("no companion should claim 1 seat, got %d", got)
	}
	if got := SeatsClaimed(true); got != 2 {
		t.Fatalf("companion should claim 2 seats, got %d", got)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to RecordState }{
		{RecordWaitlisted, RecordConfirmed},
		{RecordWaitlisted, RecordCancelled},
		{RecordConfirmed, RecordCheckedIn},
		{RecordConfirmed, RecordCancelled},
		{RecordCheckedIn, RecordCheckedOut},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to RecordState }{
		{RecordWaitlisted, RecordCheckedIn},
		{RecordConfirmed, RecordCheckedOut},
		{RecordCheckedIn, RecordCancelled},
		{RecordCheckedIn, RecordConfirmed},
		{RecordCheckedOut, RecordCheckedOut},
		{RecordCheckedOut, RecordCheckedIn},
		{RecordCancelled, RecordConfirmed},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestConsumesSeat(t *testing.T) {
	holding := map[RecordState]bool{
		RecordWaitlisted: false,
		RecordConfirmed:  true,
		RecordCheckedIn:  true,
		RecordCheckedOut: false,
		RecordCancelled:  false,
	}
	for state, want := range holding {
		if got := state.ConsumesSeat(); got != want {
			t.Errorf("%s: ConsumesSeat()=%v, want %v", state, got, want)
		}
	}
}

func TestTripStatusAcceptsAdmissions(t *testing.T) {
	if !TripScheduled.AcceptsAdmissions() || !TripInProgress.AcceptsAdmissions() {
		t.Fatal("scheduled and in_progress trips should accept admissions")
	}
	if TripCompleted.AcceptsAdmissions() || TripCancelled.AcceptsAdmissions() {
		t.Fatal("settled trips should not accept admissions")
	}
}

package services

import (
	"testing"
	"time"

	"medtransport/internal/domain/models"
)

func entry(id int64, priority models.WaitlistPriority, seats int, at time.Time) models.WaitlistEntry {
	return models.WaitlistEntry{
		ID:             id,
		TripID:         1,
		RecordID:       id + 100,
		PatientID:      id,
		Priority:       priority,
		RequestedSeats: seats,
		CreatedAt:      at,
	}
}

// sortEntries mirrors the repository's SQL ordering for pure tests.
func sortedQueue(entries ...models.WaitlistEntry) []models.WaitlistEntry {
	out := append([]models.WaitlistEntry{}, entries...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.Priority.Rank() < a.Priority.Rank() ||
				(b.Priority.Rank() == a.Priority.Rank() && b.CreatedAt.Before(a.CreatedAt)) {
				out[j-1], out[j] = b, a
			}
		}
	}
	return out
}

func TestPromotionOrderHighBeforeNormalFIFOWithinTier(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t1.Add(2 * time.Minute)

	queue := sortedQueue(
		entry(1, models.PriorityHigh, 1, t1),
		entry(2, models.PriorityNormal, 1, t2),
		entry(3, models.PriorityHigh, 1, t3),
	)

	// releasing one seat at a time must promote high@t1, high@t3, normal@t2
	wantOrder := []int64{1, 3, 2}
	for _, wantID := range wantOrder {
		picked := promotionPlan(queue, 1)
		if len(picked) != 1 {
			t.Fatalf("expected exactly one promotion with 1 free seat, got %d", len(picked))
		}
		if picked[0].ID != wantID {
			t.Fatalf("expected entry %d to promote next, got %d", wantID, picked[0].ID)
		}
		remaining := []models.WaitlistEntry{}
		for _, e := range queue {
			if e.ID != picked[0].ID {
				remaining = append(remaining, e)
			}
		}
		queue = remaining
	}
}

func TestPromotionPlanBlockingWithinTier(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// high@t1 needs 2 seats and does not fit; it blocks high@t2 even though
	// that one would fit, but normal@t3 may still take the seat.
	queue := sortedQueue(
		entry(1, models.PriorityHigh, 2, t1),
		entry(2, models.PriorityHigh, 1, t1.Add(time.Minute)),
		entry(3, models.PriorityNormal, 1, t1.Add(2*time.Minute)),
	)

	picked := promotionPlan(queue, 1)
	if len(picked) != 1 || picked[0].ID != 3 {
		t.Fatalf("expected only normal entry 3 to promote, got %+v", picked)
	}
}

func TestPromotionPlanFillsMultipleSeats(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	queue := sortedQueue(
		entry(1, models.PriorityHigh, 1, t1),
		entry(2, models.PriorityMedium, 2, t1.Add(time.Minute)),
		entry(3, models.PriorityNormal, 1, t1.Add(2*time.Minute)),
	)

	picked := promotionPlan(queue, 4)
	if len(picked) != 3 {
		t.Fatalf("expected all three entries promoted into 4 seats, got %d", len(picked))
	}
	if picked[0].ID != 1 || picked[1].ID != 2 || picked[2].ID != 3 {
		t.Fatalf("unexpected promotion order: %+v", picked)
	}
}

func TestPromotionPlanNoPartialAdmission(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	queue := sortedQueue(entry(1, models.PriorityNormal, 2, t1))
	if picked := promotionPlan(queue, 1); len(picked) != 0 {
		t.Fatalf("entry needing 2 seats must not promote into 1, got %+v", picked)
	}
}

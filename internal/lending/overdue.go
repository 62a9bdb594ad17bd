package lending

import (
	"math"
	"time"

	"github.com/digishelf/digishelf/internal/entities"
)

// IsOverdue reports whether a loan is past due at the given moment.
// Overdue status is never stored; every call site derives it through this
// predicate. Returned loans are never overdue.
func IsOverdue(loan *entities.Transaction, now time.Time) bool {
	if loan.Status != entities.TransactionStatusIssued {
		return false
	}
	return loan.DueDate.Before(startOfDay(now))
}

// DaysLate returns the number of whole calendar days the loan is past its
// due date at the given moment, zero if it is not late.
func DaysLate(dueDate, now time.Time) int {
	diff := startOfDay(now).Sub(startOfDay(dueDate))
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// FineFor computes the fine owed for a loan returned at the given moment:
// whole days late times the per-day rate, zero when on time.
func FineFor(dueDate, returnedAt time.Time, finePerDay float64) float64 {
	return float64(DaysLate(dueDate, returnedAt)) * finePerDay
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

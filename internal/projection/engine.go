// Package projection derives goal completion estimates from the ledger.
package projection

import (
	"math"
	"time"

	"cloud.google.com/go/civil"

	"github.com/korvarsson/bdget/internal/domain"
)

// trailingWindowMonths is the number of full calendar months, ending the
// month before the reference date's month, that feed the savings rate.
const trailingWindowMonths = 3

// Refresh recomputes every goal's estimated completion date from the current
// transaction set. Pure and idempotent: the same inputs produce identical
// output, so the caller can skip persistence when Equal reports no change.
// The host invokes it after every ledger mutation.
func Refresh(goals []domain.Goal, txs []domain.Transaction, now civil.Date) []domain.Goal {
	avg := averageMonthlySavings(txs, now)

	out := make([]domain.Goal, len(goals))
	for i, g := range goals {
		out[i] = project(g, avg, now)
	}
	return out
}

func project(g domain.Goal, avg float64, now civil.Date) domain.Goal {
	remaining := g.Remaining()

	switch {
	case remaining == 0:
		// Already funded.
		d := now
		g.EstimatedCompletion = &d
	case avg <= 0:
		// No attainable projection at the current savings rate.
		g.EstimatedCompletion = nil
	default:
		months := int(math.Ceil(remaining / avg))
		d := addMonths(now, months)
		g.EstimatedCompletion = &d
	}
	return g
}

// averageMonthlySavings nets income against spend over the trailing three
// full months before now's month.
func averageMonthlySavings(txs []domain.Transaction, now civil.Date) float64 {
	end := civil.Date{Year: now.Year, Month: now.Month, Day: 1}
	start := addMonths(end, -trailingWindowMonths)

	var net float64
	for _, t := range txs {
		if !t.Date.Before(start) && t.Date.Before(end) {
			net += t.Amount
		}
	}
	return net / trailingWindowMonths
}

func addMonths(d civil.Date, months int) civil.Date {
	return civil.DateOf(d.In(time.UTC).AddDate(0, months, 0))
}

// Equal reports whether two goal lists are structurally identical.
func Equal(a, b []domain.Goal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !goalEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func goalEqual(a, b domain.Goal) bool {
	if a.ID != b.ID || a.Name != b.Name ||
		a.TargetAmount != b.TargetAmount || a.CurrentAmount != b.CurrentAmount {
		return false
	}
	return datePtrEqual(a.Deadline, b.Deadline) &&
		datePtrEqual(a.EstimatedCompletion, b.EstimatedCompletion)
}

func datePtrEqual(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

package domain

import (
	"cloud.google.com/go/civil"
)

// Goal is a savings target. EstimatedCompletion is derived state: it is
// written only by the projection engine and recomputed whenever the
// transaction set changes, never set directly by a user.
type Goal struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	TargetAmount  float64     `json:"target_amount"`
	CurrentAmount float64     `json:"current_amount"`
	Deadline      *civil.Date `json:"deadline,omitempty"`
	// EstimatedCompletion is nil while no attainable projection exists.
	EstimatedCompletion *civil.Date `json:"estimated_completion,omitempty"`
}

// Remaining returns the amount still to be saved, never negative.
func (g Goal) Remaining() float64 {
	if r := g.TargetAmount - g.CurrentAmount; r > 0 {
		return r
	}
	return 0
}

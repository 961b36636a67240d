package entity

import (
	"time"

	"github.com/dsifab/fabsched/constants"
)

// QuoteRequest is a prospective job a salesperson wants checked against shop
// capacity before committing a delivery date.
type QuoteRequest struct {
	QuoteID          string                `json:"quote_id"`
	CustomerName     string                `json:"customer_name"`
	ProductType      constants.ProductType `json:"product_type"`
	DollarValue      float64               `json:"dollar_value"`
	Description      string                `json:"description,omitempty"`
	// BigRockBreakdown optionally splits the quote's dollar value into
	// separately scheduled pieces; without it the quote is treated as one job.
	BigRockBreakdown []float64 `json:"big_rock_breakdown,omitempty"`
	EngineeringReady time.Time `json:"engineering_ready"`
	TargetDate       time.Time `json:"target_date"`
}

// DepartmentSlot is a department placement proposed by a quote simulation.
type DepartmentSlot struct {
	Department constants.Department `json:"department"`
	Start      time.Time            `json:"start"`
	End        time.Time            `json:"end"`
	Days       float64              `json:"days"`
	// PushedDays is how many business days later this slot landed than the
	// pipeline would have wanted it; nonzero means the department throttled
	// the quote.
	PushedDays int `json:"pushed_days,omitempty"`
}

// QuoteEstimate is a quote simulation result against current commitments.
type QuoteEstimate struct {
	QuoteID             string                 `json:"quote_id"`
	Points              float64                `json:"points"`
	Slots               []DepartmentSlot       `json:"slots"`
	ProjectedCompletion time.Time              `json:"projected_completion"`
	Achievable          bool                   `json:"achievable"`
	Bottlenecks         []constants.Department `json:"bottlenecks,omitempty"`
}

// TierResult captures one feasibility tier's outcome.
type TierResult struct {
	Achievable          bool                   `json:"achievable"`
	ProjectedCompletion time.Time              `json:"projected_completion"`
	Bottlenecks         []constants.Department `json:"bottlenecks,omitempty"`
	// MovedJobs lists committed jobs the tier simulated pushing back
	// (tier 2 only).
	MovedJobs []string `json:"moved_jobs,omitempty"`
	// OvertimeTier names the overtime configuration used (tier 3 only).
	OvertimeTier string `json:"overtime_tier,omitempty"`
}

// FeasibilityReport is the three-tier answer to "can we accept this quote".
type FeasibilityReport struct {
	QuoteID        string                   `json:"quote_id"`
	TargetDate     time.Time                `json:"target_date"`
	AsIs           TierResult               `json:"as_is"`
	WithMoves      *TierResult              `json:"with_moves,omitempty"`
	WithOvertime   *TierResult              `json:"with_overtime,omitempty"`
	Recommendation constants.Recommendation `json:"recommendation"`
	Rationale      string                   `json:"rationale"`
}

package constants

// ProgressStatus describes how a job is tracking against its committed schedule.
type ProgressStatus string

// Stable values (store these exact strings in DB).
const (
	ProgressOnTrack  ProgressStatus = "ON_TRACK"
	ProgressAhead    ProgressStatus = "AHEAD"
	ProgressSlipping ProgressStatus = "SLIPPING"
	ProgressStalled  ProgressStatus = "STALLED"
)

// Recommendation is the outcome of a quote feasibility check.
type Recommendation string

const (
	RecommendAccept          Recommendation = "ACCEPT"
	RecommendAcceptWithMoves Recommendation = "ACCEPT_WITH_MOVES"
	RecommendAcceptWithOT    Recommendation = "ACCEPT_WITH_OT"
	RecommendDecline         Recommendation = "DECLINE"
)

package constants

// BatchCategory is a setup-compatibility class extracted from a job's
// description. Jobs in the same category (and gauge/material/due-week) can run
// as one batch and share its duration discount.
type BatchCategory string

const (
	BatchFrameKnockdown   BatchCategory = "FRAME_KNOCKDOWN"
	BatchFrameCaseOpening BatchCategory = "FRAME_CASE_OPENING"
	BatchDoorLockSeam     BatchCategory = "DOOR_LOCK_SEAM"
)

// DoorClass selects the Welding sub-pipeline throughput table for DOORS jobs.
type DoorClass string

const (
	DoorFlood            DoorClass = "FLOOD"
	DoorStandardLockSeam DoorClass = "STANDARD_LOCKSEAM"
	DoorStandardSeamless DoorClass = "STANDARD_SEAMLESS"
	DoorNYCHA            DoorClass = "NYCHA"
)

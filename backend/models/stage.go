// ABOUTME: Disease stage buckets derived from severity percentage
// ABOUTME: Fixed left-inclusive bands at 10, 30 and 60 percent

package models

// Stage is a discrete disease-progression bucket
type Stage string

const (
	StageHealthy  Stage = "Healthy"
	StageEarly    Stage = "Early"
	StageModerate Stage = "Moderate"
	StageSevere   Stage = "Severe"
)

// Stage band upper bounds (exclusive)
const (
	stageHealthyBelow  = 10.0
	stageEarlyBelow    = 30.0
	stageModerateBelow = 60.0
)

// ClassifyStage maps a severity percentage to a stage.
// These bands intentionally differ from the treatment and cost bands.
func ClassifyStage(severityPercent float64) Stage {
	switch {
	case severityPercent < stageHealthyBelow:
		return StageHealthy
	case severityPercent < stageEarlyBelow:
		return StageEarly
	case severityPercent < stageModerateBelow:
		return StageModerate
	default:
		return StageSevere
	}
}

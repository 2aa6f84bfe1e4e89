package domain

import dErrors "workbridge/pkg/domain-errors"

// PipelineStage tracks how far the counterparty organization has taken an
// active connection through its hiring process. The stage only moves forward.
type PipelineStage string

const (
	StageApplied   PipelineStage = "applied"
	StageScreening PipelineStage = "screening"
	StageInterview PipelineStage = "interview"
	StageOffer     PipelineStage = "offer"
	StageHired     PipelineStage = "hired"
)

var stageOrder = map[PipelineStage]int{
	StageApplied:   0,
	StageScreening: 1,
	StageInterview: 2,
	StageOffer:     3,
	StageHired:     4,
}

// ParsePipelineStage constructs a PipelineStage from external input.
func ParsePipelineStage(s string) (PipelineStage, error) {
	stage := PipelineStage(s)
	if _, ok := stageOrder[stage]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid pipeline stage")
	}
	return stage, nil
}

// Before reports whether s precedes other in the pipeline.
func (s PipelineStage) Before(other PipelineStage) bool {
	return stageOrder[s] < stageOrder[other]
}

// Terminal reports whether the stage represents the irreversible real-world
// commitment past which consent can no longer be withdrawn.
func (s PipelineStage) Terminal() bool {
	return s == StageHired
}

func (s PipelineStage) String() string { return string(s) }

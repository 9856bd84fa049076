package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of an ingestion run.
type Stage string

const (
	StageFetch        Stage = "fetch"
	StageExtractText  Stage = "extract_text"
	StageExtractSlots Stage = "extract_slots"
	StageResolveGym   Stage = "resolve_gym"
	StagePersist      Stage = "persist"
	StageUpdateSource Stage = "update_source"
)

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

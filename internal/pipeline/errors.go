package pipeline

import "errors"

// ErrJobNotFound means a stage task referenced a job that does not exist in
// the store. It aborts the pipeline run and is never retried.
var ErrJobNotFound = errors.New("job not found for stage")

// ErrStageOutOfOrder means a stage ran against a job whose status does not
// match the stage's precondition. It indicates a scheduling defect or a
// duplicate event delivery and is never retried.
var ErrStageOutOfOrder = errors.New("job status does not match stage precondition")

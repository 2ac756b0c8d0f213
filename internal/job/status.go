package job

// Status is the coarse lifecycle state of a transcription job. The processing
// sub-stages (convert, diarize, transcribe, merge) all run under StatusProcessing;
// stage executors enforce their finer-grained ordering with stage-local guards.
type Status string

const (
	StatusDownloading         Status = "downloading"
	StatusProcessing          Status = "processing"
	StatusPostprocessing      Status = "postprocessing"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
	StatusRejected            Status = "rejected"
	StatusFailed              Status = "failed"
)

// predecessor maps each reachable status to the single status it may be
// entered from. StatusFailed is absent: it is reachable from any active
// status through MarkFailed, not through Transition.
var predecessor = map[Status]Status{
	StatusProcessing:          StatusDownloading,
	StatusPostprocessing:      StatusProcessing,
	StatusPendingConfirmation: StatusPostprocessing,
	StatusConfirmed:           StatusPendingConfirmation,
	StatusRejected:            StatusPendingConfirmation,
}

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

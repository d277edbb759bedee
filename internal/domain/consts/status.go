package consts

// DownloadState is the lifecycle state of a queued download.
type DownloadState string

const (
	StateIdle        DownloadState = "idle"
	StateDownloading DownloadState = "downloading"
	StateProcessing  DownloadState = "processing"
	StateCompleted   DownloadState = "completed"
	StateFailed      DownloadState = "failed"
	StateCancelled   DownloadState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s DownloadState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// AllStates lists every state, used for the database CHECK constraint.
var AllStates = [...]DownloadState{
	StateIdle,
	StateDownloading,
	StateProcessing,
	StateCompleted,
	StateFailed,
	StateCancelled,
}

// ProgressIndeterminate marks a stage with no known percentage.
const ProgressIndeterminate = -1.0

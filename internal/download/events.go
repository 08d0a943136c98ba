package download

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns the level name.
func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent represents a backup progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// TransferEvent reports bytes received for the audio file currently being
// downloaded on the coordinating goroutine. Total is -1 when unknown.
type TransferEvent struct {
	Name    string
	Written int64
	Total   int64
}

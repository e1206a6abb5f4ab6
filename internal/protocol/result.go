package protocol

// Result is the coarse-grained outcome of every codec entry point.
type Result int

const (
	Success Result = iota
	NeedsMoreData
	InvalidInput
	OutOfMemory
	Skip
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case NeedsMoreData:
		return "NeedsMoreData"
	case InvalidInput:
		return "InvalidInput"
	case OutOfMemory:
		return "OutOfMemory"
	case Skip:
		return "Skip"
	default:
		return "Unknown"
	}
}

package models

// DownloadTask describes a single transfer from a remote location to a local path
type DownloadTask struct {
	SourceURL       string
	DestinationPath string
	ExpectedSize    int64  // Declared size in bytes, negative when unknown
	Kind            string // thumbnail or video, used to label metrics
}

// DownloadOutcome is the result of one transfer
type DownloadOutcome struct {
	BytesWritten  int64
	Succeeded     bool
	FailureReason string
	Err           error // Typed cause when Succeeded is false
}

// Fraction returns the completed share of a declared size, or -1 when the size is unknown.
func Fraction(written, total int64) float64 {
	if total <= 0 {
		return -1
	}
	return float64(written) / float64(total)
}

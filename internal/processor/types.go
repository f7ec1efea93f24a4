package processor

import (
	"github.com/sirupsen/logrus"

	"imgsweep/internal/dedupe"
)

type Mode int

const (
	// ModeSweep copies, deduplicates and normalizes into OutputDir.
	ModeSweep Mode = iota
	// ModeScan classifies InputDir in place without changing anything.
	ModeScan
)

type Options struct {
	Mode           Mode
	InputDir       string
	OutputDir      string
	KeepUnreadable bool
	Workers        int
	Log            logrus.FieldLogger
}

type Stage int

const (
	StageCopy Stage = iota
	StageDedupe
	StageNormalize
)

func (s Stage) String() string {
	switch s {
	case StageCopy:
		return "copying"
	case StageDedupe:
		return "deduplicating"
	case StageNormalize:
		return "normalizing"
	default:
		return "unknown"
	}
}

type Summary struct {
	Total           int
	Copied          int
	Unique          int
	ExactDuplicates int
	NearDuplicates  int
	Skipped         int
	Resized         int
	Errors          int
	BytesSaved      int64
	MetadataTags    int
}

// Duplicates is the number of files removed as exact or near duplicates.
func (s Summary) Duplicates() int {
	return s.ExactDuplicates + s.NearDuplicates
}

type Report struct {
	Path       string
	Outcome    dedupe.Outcome
	Match      string
	Similarity float64
	Err        error
}

type ProgressUpdate struct {
	Stage           Stage
	TotalDelta      int
	ProcessedDelta  int
	DuplicateDelta  int
	ErrorDelta      int
	ResizedDelta    int
	BytesSavedDelta int64
}

package dedupe

import "image"

// SimilarityThreshold is the score a pair must strictly exceed to count as a
// near duplicate.
const SimilarityThreshold = 0.95

// Outcome is the terminal classification of one candidate.
type Outcome int

const (
	Unique Outcome = iota
	ExactDuplicate
	NearDuplicateLoser
	NearDuplicateWinner
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Unique:
		return "unique"
	case ExactDuplicate:
		return "exact-duplicate"
	case NearDuplicateLoser:
		return "near-duplicate-loser"
	case NearDuplicateWinner:
		return "near-duplicate-winner"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Candidate is a decoded file waiting to be classified.
type Candidate struct {
	Path   string
	Digest Digest
	Width  int
	Image  image.Image
}

// Decision describes what should happen to a candidate. Key is the registry
// key the decision refers to: the candidate's own digest for Unique, the
// matched key otherwise. Match is the pre-existing entry involved, if any.
// Distance is the perceptual hash distance to Match for near duplicates, or
// -1 when it could not be computed.
type Decision struct {
	Outcome    Outcome
	Path       string
	Width      int
	Digest     Digest
	Key        Digest
	Match      Entry
	Similarity float64
	Distance   int
	Err        error

	candidate image.Image
	matched   image.Image
}

// Removed reports whether the decision deletes a file from the working set.
func (d Decision) Removed() bool {
	switch d.Outcome {
	case ExactDuplicate, NearDuplicateLoser, NearDuplicateWinner:
		return true
	default:
		return false
	}
}

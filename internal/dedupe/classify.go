package dedupe

import (
	"image"

	"imgsweep/internal/similarity"
)

// LoadFunc decodes a survivor's pixels during the near-duplicate scan.
type LoadFunc func(path string) (image.Image, error)

// Classify decides the fate of c against reg without touching the filesystem
// or the registry. The scan visits survivors in insertion order and stops at
// the first one scoring above SimilarityThreshold. A survivor that fails to
// load scores 0 and its error is reported through onLoadErr when non-nil.
func Classify(c Candidate, reg *Registry, cmp similarity.Comparator, load LoadFunc, onLoadErr func(Entry, error)) Decision {
	d := Decision{Path: c.Path, Width: c.Width, Digest: c.Digest, Distance: -1}

	if existing, ok := reg.Lookup(c.Digest); ok {
		d.Outcome = ExactDuplicate
		d.Key = c.Digest
		d.Match = existing
		d.Similarity = 1
		return d
	}

	for _, key := range reg.order {
		existing := reg.entries[key]
		img, err := load(existing.Path)
		if err != nil {
			if onLoadErr != nil {
				onLoadErr(existing, err)
			}
			continue
		}

		score := cmp.Similarity(c.Image, img)
		if score <= SimilarityThreshold {
			continue
		}

		d.Key = key
		d.Match = existing
		d.Similarity = score
		d.candidate = c.Image
		d.matched = img
		if c.Width > existing.Width {
			d.Outcome = NearDuplicateWinner
		} else {
			d.Outcome = NearDuplicateLoser
		}
		return d
	}

	d.Outcome = Unique
	d.Key = c.Digest
	return d
}

package dedupe

import (
	"fmt"

	"github.com/corona10/goimagehash"
	"github.com/sirupsen/logrus"

	"imgsweep/internal/similarity"
	"imgsweep/pkg/imgutil"
)

// Resolver classifies candidates one at a time against a growing registry of
// survivors and applies each decision to the working set. It is not safe for
// concurrent use.
type Resolver struct {
	Registry   *Registry
	Comparator similarity.Comparator
	Load       LoadFunc
	Remover    Remover
	Log        logrus.FieldLogger

	// KeepUnreadable leaves candidates that fail to decode in place instead of
	// removing them from the working set.
	KeepUnreadable bool
}

// NewResolver returns a Resolver using SSIM, imgutil.Load and remover.
func NewResolver(log logrus.FieldLogger, remover Remover) *Resolver {
	return &Resolver{
		Registry:   NewRegistry(),
		Comparator: similarity.SSIM{},
		Load:       imgutil.Load,
		Remover:    remover,
		Log:        log,
	}
}

// Resolve processes the candidate at path and returns the applied decision.
func (r *Resolver) Resolve(path string) Decision {
	img, err := r.Load(path)
	if err != nil {
		return r.skip(path, fmt.Errorf("open: %w", err))
	}
	digest, err := HashFile(path)
	if err != nil {
		return r.skip(path, fmt.Errorf("hash: %w", err))
	}

	c := Candidate{Path: path, Digest: digest, Width: img.Bounds().Dx(), Image: img}
	d := Classify(c, r.Registry, r.Comparator, r.Load, func(e Entry, err error) {
		r.Log.WithField("file", e.Path).WithError(err).Warn("survivor unreadable, treated as dissimilar")
	})
	r.apply(&d)
	return d
}

func (r *Resolver) apply(d *Decision) {
	switch d.Outcome {
	case ExactDuplicate:
		r.Log.WithFields(logrus.Fields{
			"file":     d.Path,
			"original": d.Match.Path,
		}).Info("exact duplicate")
		d.Err = r.Remover.Remove(d.Path)

	case NearDuplicateLoser:
		r.annotate(d)
		r.logVisual(d, d.Match.Path)
		d.Err = r.Remover.Remove(d.Path)

	case NearDuplicateWinner:
		r.annotate(d)
		r.logVisual(d, d.Path)
		d.Err = r.Remover.Remove(d.Match.Path)
		r.Registry.Put(d.Key, Entry{Digest: d.Digest, Path: d.Path, Width: d.Width})

	case Unique:
		r.Registry.Put(d.Key, Entry{Digest: d.Digest, Path: d.Path, Width: d.Width})
	}

	if d.Err != nil {
		r.Log.WithField("file", d.Path).WithError(d.Err).Error("remove failed")
	}
	d.candidate, d.matched = nil, nil
}

func (r *Resolver) logVisual(d *Decision, kept string) {
	r.Log.WithFields(logrus.Fields{
		"file":  d.Path,
		"match": d.Match.Path,
		"ssim":  fmt.Sprintf("%.2f", d.Similarity),
		"phash": d.Distance,
		"kept":  kept,
	}).Info("visual duplicate")
}

// annotate records the perceptual hash distance between a near duplicate and
// its match. Failures leave Distance at -1.
func (r *Resolver) annotate(d *Decision) {
	if d.candidate == nil || d.matched == nil {
		return
	}
	a, err := goimagehash.PerceptionHash(d.candidate)
	if err != nil {
		return
	}
	b, err := goimagehash.PerceptionHash(d.matched)
	if err != nil {
		return
	}
	if dist, err := a.Distance(b); err == nil {
		d.Distance = dist
	}
}

func (r *Resolver) skip(path string, err error) Decision {
	d := Decision{Outcome: Skipped, Path: path, Distance: -1, Err: err}
	r.Log.WithField("file", path).WithError(err).Error("skipping unreadable image")
	if r.KeepUnreadable {
		return d
	}
	if rmErr := r.Remover.Remove(path); rmErr != nil {
		r.Log.WithField("file", path).WithError(rmErr).Error("remove failed")
	}
	return d
}

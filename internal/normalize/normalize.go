// Package normalize shrinks oversized survivors and re-encodes them in place.
package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"imgsweep/pkg/imgutil"
)

const (
	// MaxWidth is the widest an image may be after normalization.
	MaxWidth = 800

	JPEGQuality = 85
)

// Result reports what happened to one file.
type Result struct {
	Path         string
	Width        int
	Height       int
	NewWidth     int
	NewHeight    int
	Resized      bool
	Unchanged    bool
	BytesSaved   int64
	MetadataTags int
	MetadataErr  error
	Err          error
}

// Normalizer re-encodes files with a pool of workers. Results come back in
// input order regardless of Workers.
type Normalizer struct {
	Log     logrus.FieldLogger
	Workers int

	// OnResult, when set, is called from the collecting goroutine as each file
	// finishes.
	OnResult func(Result)
}

type job struct {
	index int
	path  string
}

// Run normalizes every path. Per-file failures are recorded on the returned
// results and never stop the batch. Cancelling ctx stops dispatching new files.
func (n *Normalizer) Run(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	workers := n.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan job)
	done := make(chan job)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = n.file(j.path)
				done <- j
			}
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for j := range done {
			if n.OnResult != nil {
				n.OnResult(results[j.index])
			}
		}
	}()

	for i, path := range paths {
		if ctx != nil && ctx.Err() != nil {
			results[i] = Result{Path: path, Err: ctx.Err()}
			continue
		}
		jobs <- job{index: i, path: path}
	}
	close(jobs)

	wg.Wait()
	close(done)
	<-collectorDone
	return results
}

func (n *Normalizer) file(path string) Result {
	log := n.Log.WithField("file", filepath.Base(path))

	res, err := File(path)
	if err != nil {
		res.Err = err
		log.WithError(err).Error("normalize failed")
		return res
	}
	if res.Resized {
		log.WithFields(logrus.Fields{
			"from": fmt.Sprintf("%dx%d", res.Width, res.Height),
			"to":   fmt.Sprintf("%dx%d", res.NewWidth, res.NewHeight),
		}).Info("resized")
	}
	if res.Unchanged {
		log.Debug("re-encode not smaller, original kept")
	}
	if res.MetadataErr != nil {
		log.WithError(res.MetadataErr).Debug("metadata not inspected")
	}
	if res.MetadataTags > 0 {
		log.WithField("tags", res.MetadataTags).Debug("metadata dropped by re-encode")
	}
	return res
}

// TargetSize returns the dimensions an image of w x h is normalized to and
// whether that differs from the input.
func TargetSize(w, h int) (int, int, bool) {
	if w <= MaxWidth {
		return w, h, false
	}
	nh := int(math.Round(MaxWidth * float64(h) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return MaxWidth, nh, true
}

// File decodes path, shrinks it to MaxWidth if needed and rewrites it with
// the encoder chosen by its extension. A WebP that needs no resize is left
// as is when the lossless re-encode would not be smaller.
func File(path string) (Result, error) {
	res := Result{Path: path}

	kind := imgutil.KindFromName(path)
	if kind == imgutil.KindUnknown {
		return res, fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}

	srcInfo, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	res.MetadataTags, res.MetadataErr = countMetadata(path, kind)

	img, err := imgutil.Load(path)
	if err != nil {
		return res, err
	}

	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	nw, nh, resize := TargetSize(res.Width, res.Height)
	res.NewWidth, res.NewHeight, res.Resized = nw, nh, resize
	if resize {
		img = imaging.Resize(img, nw, nh, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, kind); err != nil {
		return res, err
	}
	if kind == imgutil.KindWebP && !resize && int64(buf.Len()) >= srcInfo.Size() {
		res.Unchanged = true
		return res, nil
	}

	if err := rewrite(path, srcInfo.Mode(), func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	}); err != nil {
		return res, err
	}

	outInfo, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	res.BytesSaved = srcInfo.Size() - outInfo.Size()
	return res, nil
}

func encode(w io.Writer, img image.Image, kind imgutil.Kind) error {
	switch kind {
	case imgutil.KindJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	case imgutil.KindPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case imgutil.KindWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("no encoder for %s", kind)
	}
}

func rewrite(path string, mode os.FileMode, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "imgsweep-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := write(tmpFile); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return replaceFile(tmpFile.Name(), path)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

package normalize

import (
	"errors"
	"fmt"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"imgsweep/pkg/imgutil"
)

// countMetadata returns how many metadata items path carries: EXIF tags for
// JPEG, metadata chunks for PNG. Re-encoding writes none of them back.
func countMetadata(path string, kind imgutil.Kind) (n int, err error) {
	if kind != imgutil.KindJPEG && kind != imgutil.KindPNG {
		return 0, nil
	}
	sniffed, err := imgutil.SniffFile(path)
	if err != nil {
		return 0, err
	}
	if sniffed != kind {
		return 0, fmt.Errorf("content is %s, extension says %s", sniffed, kind)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if kind == imgutil.KindPNG {
		return countPNGMetadata(f)
	}

	// go-exif panics on some malformed IFDs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("exif: %v", r)
		}
	}()

	raw, err := exif.SearchAndExtractExifWithReader(f)
	if err != nil {
		if errorsIsNoExif(err) {
			return 0, nil
		}
		return 0, err
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 0, err
	}
	return len(tags), nil
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}

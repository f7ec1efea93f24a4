package normalize

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/sirupsen/logrus"

	"imgsweep/pkg/imgutil"
)

func TestTargetSize(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
		resize       bool
	}{
		{640, 480, 640, 480, false},
		{800, 600, 800, 600, false},
		{1600, 1200, 800, 600, true},
		{1000, 800, 800, 640, true},
		{1001, 333, 800, 266, true},
		{5000, 1, 800, 1, true},
	}
	for _, tc := range cases {
		w, h, resize := TargetSize(tc.w, tc.h)
		if w != tc.wantW || h != tc.wantH || resize != tc.resize {
			t.Fatalf("TargetSize(%d, %d) = %d, %d, %v; want %d, %d, %v",
				tc.w, tc.h, w, h, resize, tc.wantW, tc.wantH, tc.resize)
		}
	}
}

func TestFileHalvesWidePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	writePNG(t, path, 1600, 900)

	res, err := File(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !res.Resized || res.NewWidth != 800 || res.NewHeight != 450 {
		t.Fatalf("unexpected result: %+v", res)
	}
	assertSize(t, path, 800, 450)
}

func TestFileLeavesNarrowJPEGDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrow.JPG")
	writeJPEG(t, path, 640, 480, nil)

	res, err := File(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Resized {
		t.Fatalf("expected no resize, got %+v", res)
	}
	assertSize(t, path, 640, 480)
}

func TestFileDropsExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagged.jpg")
	writeJPEG(t, path, 64, 64, buildExifTIFF())

	res, err := File(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.MetadataTags == 0 {
		t.Fatalf("expected EXIF tags to be counted, err: %v", res.MetadataErr)
	}
	if n, _ := countMetadata(path, imgutil.KindJPEG); n != 0 {
		t.Fatalf("expected no EXIF after re-encode, got %d tags", n)
	}
}

func TestFileDropsPNGTextChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tagged.png")

	var buf bytes.Buffer
	if err := png.Encode(&buf, scene(32, 32)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, buildPNGChunk("tEXt", []byte("Model\x00TestCam"))...)
	out = append(out, buildPNGChunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})...)
	out = append(out, data[insertAt:]...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := File(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.MetadataTags != 2 {
		t.Fatalf("expected 2 metadata chunks, got %d (%v)", res.MetadataTags, res.MetadataErr)
	}
	if n, err := countMetadata(path, imgutil.KindPNG); n != 0 || err != nil {
		t.Fatalf("expected no metadata after re-encode, got %d (%v)", n, err)
	}
}

func TestFileWebP(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.webp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := nativewebp.Encode(f, scene(1000, 500), nil); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	f.Close()

	if _, err := File(path); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	assertSize(t, path, 800, 400)
}

func TestFileKeepsWebPWhenReencodeIsNotSmaller(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.webp")
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, scene(300, 200), nil); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := File(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !res.Unchanged || res.Resized || res.BytesSaved != 0 {
		t.Fatalf("expected original kept, got %+v", res)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(data, buf.Bytes()) {
		t.Fatalf("expected file bytes untouched (%v)", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestFileCorruptLeavesFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := File(path); err == nil {
		t.Fatalf("expected decode error")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "not a png" {
		t.Fatalf("expected corrupt file untouched, got %q (%v)", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestRunKeepsOrderAndContainsErrors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.jpg")
	writePNG(t, a, 1200, 600)
	if err := os.WriteFile(b, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	writeJPEG(t, c, 300, 200, nil)

	log := logrus.New()
	log.SetOutput(io.Discard)
	var seen int
	n := &Normalizer{Log: log, Workers: 2, OnResult: func(Result) { seen++ }}
	results := n.Run(context.Background(), []string{a, b, c})

	if len(results) != 3 || seen != 3 {
		t.Fatalf("expected 3 results, got %d (callbacks %d)", len(results), seen)
	}
	for i, want := range []string{a, b, c} {
		if results[i].Path != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, results[i].Path)
		}
	}
	if results[0].Err != nil || !results[0].Resized {
		t.Fatalf("expected a.png resized, got %+v", results[0])
	}
	if results[1].Err == nil {
		t.Fatalf("expected b.png to fail")
	}
	if results[2].Err != nil || results[2].Resized {
		t.Fatalf("expected c.jpg re-encoded without resize, got %+v", results[2])
	}
	assertSize(t, a, 800, 400)
}

func scene(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 0xff})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, scene(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

// writeJPEG encodes a JPEG and, when exifTIFF is non-nil, splices an APP1
// EXIF segment in right after SOI.
func writeJPEG(t *testing.T, path string, w, h int, exifTIFF []byte) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scene(w, h), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()

	if exifTIFF != nil {
		payload := append([]byte("Exif\x00\x00"), exifTIFF...)
		var seg bytes.Buffer
		seg.Write([]byte{0xff, 0xe1})
		_ = binary.Write(&seg, binary.BigEndian, uint16(len(payload)+2))
		seg.Write(payload)

		out := append([]byte{}, data[:2]...)
		out = append(out, seg.Bytes()...)
		data = append(out, data[2:]...)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, chunkType...)
	chunk = append(chunk, data...)
	crc := crc32.ChecksumIEEE(append([]byte(chunkType), data...))
	return binary.BigEndian.AppendUint32(chunk, crc)
}

func assertSize(t *testing.T, path string, w, h int) {
	t.Helper()
	img, err := imgutil.Load(path)
	if err != nil {
		t.Fatalf("reload %s: %v", path, err)
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Fatalf("%s: expected %dx%d, got %dx%d", filepath.Base(path), w, h, b.Dx(), b.Dy())
	}
}

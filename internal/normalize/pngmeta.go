package normalize

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// countPNGMetadata counts the ancillary metadata chunks in a PNG stream:
// text entries, the modification time and embedded EXIF.
func countPNGMetadata(r io.Reader) (int, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return 0, err
	}
	if string(sig) != string(pngSignature) {
		return 0, errors.New("invalid PNG signature")
	}

	count := 0
	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(br, chunkType); err != nil {
			return count, err
		}

		switch string(chunkType) {
		case "tEXt", "zTXt", "iTXt", "tIME", "eXIf":
			count++
		}
		if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
			return count, err
		}
		if string(chunkType) == "IEND" {
			return count, nil
		}
	}
}

package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Digest is the SHA-256 of a file's full contents.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashFile reads the whole file at path and returns its digest.
func HashFile(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(data), nil
}

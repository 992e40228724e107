package plugins

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// LibraryDigest returns the hex BLAKE3 digest of the file at path.
func LibraryDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// digestMatches compares a pinned digest, optionally "blake3:"-prefixed,
// against a computed one.
func digestMatches(pinned, got string) bool {
	pinned = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(pinned)), "blake3:")
	return pinned == got
}

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// hashFile returns the hex SHA-256 digest of a local file
func hashFile(localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", localPath, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// localExists reports whether localPath is an existing regular file
func localExists(localPath string) bool {
	info, err := os.Stat(localPath)
	return err == nil && info.Mode().IsRegular()
}

// objectKey builds the storage key for a document file: documents/<year>/<code><ext>
func objectKey(code, localPath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("documents/%d/%s%s", now.Year(), sanitizeCode(code), ext)
}

// sanitizeCode keeps codes safe for use as a path segment
func sanitizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, code)
}

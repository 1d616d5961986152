package models

import (
	"fmt"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

// ScannedFile holds the location and content of a file read from the project
type ScannedFile struct {
	Path         string
	RelativePath string
	Content      string
	Priority     int
}

// CharCount returns the size of the content in characters, the unit used by the context budget.
func (f ScannedFile) CharCount() int {
	return utf8.RuneCountInString(f.Content)
}

// Digest returns a fingerprint of the content, used to detect edits made after the file was read.
func (f ScannedFile) Digest() string {
	return ContentDigest(f.Content)
}

// ContentDigest hashes content the same way ScannedFile.Digest does.
func ContentDigest(content string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(content))
}

// Package storage archives the raw MIME of locally received mail so
// inbound messages can be audited or replayed after parsing.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrNotArchived        = errors.New("archived mail not found")
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
	ErrBlockedAttachment  = errors.New("attachment extension is blocked")
)

// MaxAttachmentSize is the largest attachment persisted with a message (25 MB).
const MaxAttachmentSize = 25 * 1024 * 1024

// BlockedExtensions lists attachment extensions that are never stored.
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true,
}

// Archive stores and retrieves raw mail by an opaque relative path.
type Archive interface {
	Store(raw []byte) (string, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// localArchive keeps archived mail on the local filesystem under basePath.
type localArchive struct {
	basePath string
}

// NewLocalArchive creates the archive directory if needed.
func NewLocalArchive(basePath string) (Archive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &localArchive{basePath: basePath}, nil
}

// validatePath ensures path stays within basePath.
func (a *localArchive) validatePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		return "", ErrPathTraversal
	}
	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	fullPath := filepath.Join(a.basePath, cleanPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid archive path: %w", err)
	}
	absBase, err := filepath.Abs(a.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) &&
		absPath != absBase {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// ValidateAttachment checks an attachment's extension and size before it
// is persisted alongside a message.
func ValidateAttachment(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if BlockedExtensions[ext] {
		return ErrBlockedAttachment
	}
	if size > MaxAttachmentSize {
		return ErrAttachmentTooLarge
	}
	return nil
}

// Store writes one raw message as an .eml file and returns its relative
// path. Names are random so concurrent deliveries never collide.
func (a *localArchive) Store(raw []byte) (string, error) {
	name := uuid.New().String() + ".eml"

	// Two-character fanout keeps directory listings manageable.
	subDir := name[:2]
	if err := os.MkdirAll(filepath.Join(a.basePath, subDir), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive subdirectory: %w", err)
	}

	path := filepath.Join(subDir, name)
	fullPath := filepath.Join(a.basePath, path)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(raw); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	return path, nil
}

// Open returns the raw MIME previously stored under path.
func (a *localArchive) Open(path string) (io.ReadCloser, error) {
	fullPath, err := a.validatePath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotArchived
		}
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	return file, nil
}

// Remove deletes one archived message. Removing a path that is already
// gone is not an error.
func (a *localArchive) Remove(path string) error {
	fullPath, err := a.validatePath(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete archive file: %w", err)
	}
	return nil
}

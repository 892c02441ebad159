package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidKey = errors.New("invalid storage key")
	ErrNotFound   = errors.New("object not found")
)

// Media is one generated artifact headed for the archive.
type Media struct {
	Owner     string
	ContentID string
	// MimeType may be empty; it is sniffed from the first bytes of Body.
	MimeType string
	Body     io.Reader
}

// Stored describes an archived object.
type Stored struct {
	Key      string
	MimeType string
	Size     int64
}

// ObjectStore archives generated media.
type ObjectStore interface {
	Put(ctx context.Context, m Media) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Prepare validates m, resolves its mime type and returns the key it is stored under.
func Prepare(m Media) (key, mimeType string, body io.Reader, err error) {
	if strings.TrimSpace(m.Owner) == "" {
		return "", "", nil, errors.New("owner is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(m.ContentID))
	if err != nil {
		return "", "", nil, fmt.Errorf("content id: %w", err)
	}
	if m.Body == nil {
		return "", "", nil, errors.New("body is required")
	}
	mimeType, body, err = Sniff(m.MimeType, m.Body)
	if err != nil {
		return "", "", nil, err
	}
	return Key(m.Owner, id.String(), mimeType), mimeType, body, nil
}

// Key lays objects out as <owner digest>/<content id><ext>. The owner id never
// appears in the key itself.
func Key(owner, contentID, mimeType string) string {
	return path.Join(OwnerDir(owner), contentID+ExtensionFor(mimeType))
}

// OwnerDir returns the hex digest directory for an owner.
func OwnerDir(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:16])
}

// CleanKey rejects keys that could escape the archive root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// Sniff resolves the content type of r, returning a reader that still yields every byte.
func Sniff(contentType string, r io.Reader) (string, io.Reader, error) {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return ct, r, nil
	}
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// ExtensionFor maps common media types to a file extension.
func ExtensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}

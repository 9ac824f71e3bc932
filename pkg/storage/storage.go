// Package storage persists uploaded car images and removes them again.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage persists uploaded files and returns a locator that is recorded on the image row.
type Storage interface {
	// Store writes r under a collision-resistant name derived from fieldName and
	// the extension of originalName.
	Store(ctx context.Context, fieldName, originalName string, r io.Reader) (string, error)
	// Remove deletes the object behind locator. A missing object is not an error.
	Remove(ctx context.Context, locator string) error
}

// now is swapped in tests.
var now = time.Now

// ObjectName builds "<field>-<unix millis>-<random><ext>".
func ObjectName(fieldName, originalName string) string {
	if fieldName == "" {
		fieldName = "file"
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s%s", fieldName, now().UnixMilli(), suffix, ext)
}

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectKey builds a storage key for an uploaded document, partitioned by
// upload date: documents/YYYY/MM/<uuid><ext>. The original filename only
// contributes its extension, so user-supplied names never reach the bucket.
func ObjectKey(now time.Time, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("documents/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

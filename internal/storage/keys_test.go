package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	key := ObjectKey(now, "Facture Mars.PDF")

	assert.True(t, strings.HasPrefix(key, "documents/2025/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)

	base := strings.TrimSuffix(strings.TrimPrefix(key, "documents/2025/03/"), ".pdf")
	_, err := uuid.Parse(base)
	require.NoError(t, err, "key basename should be a uuid")

	// Filenames without an extension produce a bare uuid basename.
	key = ObjectKey(now, "scan")
	base = strings.TrimPrefix(key, "documents/2025/03/")
	_, err = uuid.Parse(base)
	require.NoError(t, err)

	// Two calls never collide.
	assert.NotEqual(t, ObjectKey(now, "a.png"), ObjectKey(now, "a.png"))
}

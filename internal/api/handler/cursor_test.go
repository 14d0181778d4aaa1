package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genstudio-io/genstudio-be/internal/storage"
)

func TestTaskCursorRoundTrip(t *testing.T) {
	in := &storage.JobCursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 500, time.UTC),
		JobID:     9812,
	}

	encoded := EncodeTaskCursor(in)
	out, err := DecodeTaskCursor(encoded)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.JobID, out.JobID)
}

func TestDecodeTaskCursor_Empty(t *testing.T) {
	out, err := DecodeTaskCursor("")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDecodeTaskCursor_Garbage(t *testing.T) {
	_, err := DecodeTaskCursor("not-base64!!")
	assert.Error(t, err)

	// valid base64, wrong shape
	_, err = DecodeTaskCursor("aGVsbG8=")
	assert.Error(t, err)
}

package diagnostics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_Empty(t *testing.T) {
	r := NewRecorder()
	assert.Empty(t, r.Recent())
}

func TestRecorder_NewestFirst(t *testing.T) {
	r := NewRecorder()
	r.RecordError("worker", "first")
	r.RecordError("worker", "second")
	r.RecordError("api", "third")

	recent := r.Recent()
	assert.Len(t, recent, 3)
	assert.Equal(t, "third", recent[0].Message)
	assert.Equal(t, "second", recent[1].Message)
	assert.Equal(t, "first", recent[2].Message)
}

func TestRecorder_EvictsOldest(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < ringSize+5; i++ {
		r.RecordError("worker", fmt.Sprintf("err-%d", i))
	}

	recent := r.Recent()
	assert.Len(t, recent, ringSize)
	assert.Equal(t, fmt.Sprintf("err-%d", ringSize+4), recent[0].Message)
	assert.Equal(t, "err-5", recent[ringSize-1].Message)
}

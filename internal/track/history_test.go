package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsensusMajority(t *testing.T) {
	h := &History{}
	h.Push("user_1", 5)
	h.Push("user_1", 7)
	h.Push("user_2", 3)

	id, pct, score, ok := h.Consensus()
	assert.True(t, ok)
	assert.Equal(t, "user_1", id)
	assert.InDelta(t, 200.0/3.0, pct, 1e-6)
	assert.Equal(t, 5.0, score)
}

func TestConsensusTieBreaksOnLowestScore(t *testing.T) {
	h := &History{}
	h.Push("user_1", 10)
	h.Push("user_2", 4)

	id, _, score, ok := h.Consensus()
	assert.True(t, ok)
	assert.Equal(t, "user_2", id)
	assert.Equal(t, 4.0, score)
}

func TestHistoryCapacityEvicts(t *testing.T) {
	h := &History{}
	for i := 0; i < capacity+5; i++ {
		h.Push("user_1", float64(i))
	}
	assert.Len(t, h.buf, capacity)
	assert.Equal(t, float64(capacity+4), h.buf[len(h.buf)-1].Score)
}

func TestConsensusEmptyReturnsFalse(t *testing.T) {
	h := &History{}
	_, _, _, ok := h.Consensus()
	assert.False(t, ok)
}

func TestStoreTracksIndependentHistories(t *testing.T) {
	s := NewStore()
	s.Push(1, "user_1", 5)
	s.Push(2, "user_2", 5)

	id1, _, _, ok1 := s.Consensus(1)
	id2, _, _, ok2 := s.Consensus(2)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, "user_1", id1)
	assert.Equal(t, "user_2", id2)

	s.Forget(1)
	_, _, _, ok := s.Consensus(1)
	assert.False(t, ok)
}

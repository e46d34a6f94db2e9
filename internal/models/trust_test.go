package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampTrust(t *testing.T) {
	assert.Equal(t, 0, ClampTrust(-10))
	assert.Equal(t, 0, ClampTrust(0))
	assert.Equal(t, 42, ClampTrust(42))
	assert.Equal(t, 100, ClampTrust(100))
	assert.Equal(t, 100, ClampTrust(250))
}

func TestClampAfterAdjustmentSequence(t *testing.T) {
	// Any sequence of ledger deltas keeps the stored score in [0, 100].
	score := TrustDefault
	for _, delta := range []int{50, 50, 50, -300, 10, -5, 500} {
		score = ClampTrust(score + delta)
		assert.GreaterOrEqual(t, score, TrustMin)
		assert.LessOrEqual(t, score, TrustMax)
	}
}

func TestVoteScoreFormula(t *testing.T) {
	assert.Equal(t, 30, VoteScore(0, 0))
	assert.Equal(t, 35, VoteScore(1, 0))
	assert.Equal(t, 25, VoteScore(0, 1))
	assert.Equal(t, 30, VoteScore(3, 3))
	assert.Equal(t, 100, VoteScore(14, 0))
	assert.Equal(t, 100, VoteScore(50, 0), "clamped at the top")
	assert.Equal(t, 0, VoteScore(0, 6))
	assert.Equal(t, 0, VoteScore(0, 40), "clamped at the bottom")
}

package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverloadPenaltyTiers(t *testing.T) {
	tests := []struct {
		totalItems int64
		penalty    float64
	}{
		{0, 0},
		{99, 0},
		{100, 0.2},
		{199, 0.2},
		{200, 0.5},
		{399, 0.5},
		{400, 0.8},
		{10000, 0.8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.penalty, overloadPenalty(tt.totalItems), "totalItems=%d", tt.totalItems)
	}
}

func TestRobModes(t *testing.T) {
	tests := []struct {
		mode       string
		energy     int
		success    float64
		multiplier float64
	}{
		{RobQuick, 5, 0.5, 0.2},
		{RobNormal, 10, 0.65, 0.4},
		{RobCareful, 15, 0.8, 0.6},
	}
	for _, tt := range tests {
		cfg, ok := robModes[tt.mode]
		assert.True(t, ok, tt.mode)
		assert.Equal(t, tt.energy, cfg.energy)
		assert.Equal(t, tt.success, cfg.success)
		assert.Equal(t, tt.multiplier, cfg.multiplier)
	}

	_, ok := robModes["reckless"]
	assert.False(t, ok)
}

func TestRobRollUsesServiceRNG(t *testing.T) {
	svc := &AccountService{rng: rand.New(rand.NewSource(5))}
	want := rand.New(rand.NewSource(5))

	for i := 0; i < 10; i++ {
		assert.Equal(t, want.Float64(), svc.roll())
	}
}

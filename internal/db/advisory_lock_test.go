package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseLockKey_DistinctAcrossHighBits(t *testing.T) {
	// Course IDs that agree in their low 32 bits must still map to
	// distinct lock keys.
	base := int64(7)
	high := base + (1 << 32)

	assert.NotEqual(t, courseLockKey(base), courseLockKey(high))
}

func TestCourseLockKey_Bijective(t *testing.T) {
	seen := map[int64]int64{}
	ids := []int64{1, 2, 42, 1 << 31, 1 << 32, (1 << 32) + 1, 1<<62 + 5}

	for _, id := range ids {
		key := courseLockKey(id)
		if prev, ok := seen[key]; ok {
			t.Fatalf("courses %d and %d share lock key %d", prev, id, key)
		}
		seen[key] = id
	}
}

func TestCourseLockKey_Deterministic(t *testing.T) {
	assert.Equal(t, courseLockKey(99), courseLockKey(99))
	assert.NotEqual(t, courseLockKey(1), courseLockKey(2))
}

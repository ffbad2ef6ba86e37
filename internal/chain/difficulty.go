package chain

// Constants exposed to operators (spec §6).
const (
	TargetBlockTimeSeconds       = 60
	DifficultyAdjustmentWindow   = 2016
	MinDifficulty                = 1
	MaxDifficulty                = 256
)

// RetargetDifficulty computes the new difficulty given the timestamps
// of the first and last block of a just-completed 2016-block window.
// The new value is old*(expected/actual), clamped to [old/4, old*4]
// and to [MinDifficulty, MaxDifficulty].
func RetargetDifficulty(old uint64, firstTimestamp, lastTimestamp int64) uint64 {
	actual := lastTimestamp - firstTimestamp
	if actual < 1 {
		actual = 1
	}
	expected := int64(DifficultyAdjustmentWindow * TargetBlockTimeSeconds)

	next := float64(old) * float64(expected) / float64(actual)

	lo := float64(old) / 4
	hi := float64(old) * 4
	if next < lo {
		next = lo
	}
	if next > hi {
		next = hi
	}

	result := uint64(next)
	if result < MinDifficulty {
		result = MinDifficulty
	}
	if result > MaxDifficulty {
		result = MaxDifficulty
	}
	return result
}

// ShouldRetarget reports whether the block at height height is the
// last block of a difficulty adjustment window (so its successor's
// difficulty must be retargeted).
func ShouldRetarget(height uint64) bool {
	return height > 0 && height%DifficultyAdjustmentWindow == 0
}

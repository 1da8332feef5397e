package logic

import (
	"sort"

	"github.com/sweeney/parking-sensor/internal/ranging"
)

// Aggregate reduces one cycle's raw samples to a single filtered distance.
// Invalid samples are discarded; at least quorum valid samples are required,
// otherwise ok is false and the cycle carries no evidence. The aggregate is
// the median of the valid samples, which tolerates the single outlier echoes
// ultrasonic rangers are prone to. For an even count the median is the mean
// of the two middle values.
func Aggregate(samples []ranging.Sample, quorum int) (distanceCM float64, ok bool) {
	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Valid {
			valid = append(valid, s.DistanceCM)
		}
	}

	if len(valid) < quorum {
		return 0, false
	}

	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 1 {
		return valid[mid], true
	}
	return (valid[mid-1] + valid[mid]) / 2, true
}

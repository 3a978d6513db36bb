package frame

import (
	"fmt"
	"math"

	"github.com/chaoticbyte/loadsplit/config"
)

// Scorer computes a scalar dissimilarity between two equally-shaped buffers.
// 0 means identical; larger means more different.
type Scorer func(ref, cur Buffer) (float64, error)

// ScorerFor maps a difference method to its implementation. Unknown methods
// are rejected at profile parse time, so this table is total over the enum.
func ScorerFor(m config.DiffMethod) (Scorer, error) {
	switch m {
	case config.MethodNRMSE:
		return NRMSE, nil
	}
	return nil, fmt.Errorf("%w: %v", config.ErrUnsupportedMethod, m)
}

// NRMSE is the root-mean-square difference normalized by the reference's
// root-mean-square, over all samples regardless of channel count.
func NRMSE(ref, cur Buffer) (float64, error) {
	if !ref.SameShape(cur) {
		return 0, fmt.Errorf("%w: reference %s vs current %s", ErrDimensionMismatch, ref.shape(), cur.shape())
	}
	var sqDiff, sqRef float64
	for i, r := range ref.Pix {
		d := float64(r) - float64(cur.Pix[i])
		sqDiff += d * d
		sqRef += float64(r) * float64(r)
	}
	if sqRef == 0 {
		if sqDiff == 0 {
			return 0, nil
		}
		return math.Inf(1), nil
	}
	return math.Sqrt(sqDiff / sqRef), nil
}

// IsMatch classifies a score against the profile threshold. The comparison
// is strict: a score equal to the threshold is a non-match.
func IsMatch(score, threshold float64) bool {
	return score < threshold
}

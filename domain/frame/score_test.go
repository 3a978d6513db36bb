package frame

import (
	"errors"
	"math"
	"testing"

	"github.com/chaoticbyte/loadsplit/config"
)

// uniform builds a buffer with every sample set to v.
func uniform(w, h, c int, v uint8) Buffer {
	b := New(w, h, c)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

func TestNRMSE_SelfMatchIsZero(t *testing.T) {
	ref := uniform(8, 6, 3, 137)
	score, err := NRMSE(ref, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Fatalf("self match should score 0, got %v", score)
	}
}

func TestNRMSE_KnownValue(t *testing.T) {
	// ref all 100, cur all 110: sqrt(n*100 / n*10000) = 0.1
	ref := uniform(4, 4, 3, 100)
	cur := uniform(4, 4, 3, 110)
	score, err := NRMSE(ref, cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.1) > 1e-12 {
		t.Fatalf("expected 0.1, got %v", score)
	}
}

func TestNRMSE_NonNegative(t *testing.T) {
	ref := uniform(5, 5, 1, 200)
	cur := uniform(5, 5, 1, 10)
	score, err := NRMSE(ref, cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score < 0 {
		t.Fatalf("score must be non-negative, got %v", score)
	}
}

func TestNRMSE_ShapeMismatch(t *testing.T) {
	ref := uniform(4, 4, 3, 50)
	cur := uniform(4, 4, 1, 50)
	if _, err := NRMSE(ref, cur); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	cur2 := uniform(5, 4, 3, 50)
	if _, err := NRMSE(ref, cur2); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch for size change, got %v", err)
	}
}

func TestNRMSE_ZeroReference(t *testing.T) {
	ref := uniform(3, 3, 1, 0)
	if score, err := NRMSE(ref, ref); err != nil || score != 0 {
		t.Fatalf("zero vs zero should be 0, got %v err=%v", score, err)
	}
	cur := uniform(3, 3, 1, 1)
	score, err := NRMSE(ref, cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(score, 1) {
		t.Fatalf("zero reference vs non-zero should score +Inf, got %v", score)
	}
}

func TestIsMatch_StrictThreshold(t *testing.T) {
	if IsMatch(0.05, 0.05) {
		t.Fatal("score equal to threshold must not match")
	}
	if !IsMatch(0.049, 0.05) {
		t.Fatal("score below threshold must match")
	}
}

func TestIsMatch_MonotonicInThreshold(t *testing.T) {
	// Raising the threshold can only turn a non-match into a match.
	score := 0.3
	matched := false
	for th := 0.0; th <= 1.0; th += 0.01 {
		m := IsMatch(score, th)
		if matched && !m {
			t.Fatalf("match flipped back to non-match at threshold %v", th)
		}
		if m {
			matched = true
		}
	}
	if !matched {
		t.Fatal("expected a match once threshold exceeds score")
	}
}

func TestScorerFor_KnownMethod(t *testing.T) {
	s, err := ScorerFor(config.MethodNRMSE)
	if err != nil || s == nil {
		t.Fatalf("expected scorer for nrmse, got err=%v", err)
	}
}

func TestScorerFor_UnknownMethod(t *testing.T) {
	if _, err := ScorerFor(config.DiffMethod(99)); !errors.Is(err, config.ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

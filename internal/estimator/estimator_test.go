package estimator

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestBiasedAndUnbiasedKnownSample(t *testing.T) {
	// Sample [1, 2, 3]: mean 2, sum of squared deviations 2.
	sample := []float64{1, 2, 3}

	biased := Biased(sample)
	if diff := math.Abs(biased - 2.0/3.0); diff > 1e-12 {
		t.Errorf("Biased = %v, want 2/3", biased)
	}

	unbiased, err := Unbiased(sample)
	if err != nil {
		t.Fatalf("Unbiased: %v", err)
	}
	if diff := math.Abs(unbiased - 1.0); diff > 1e-12 {
		t.Errorf("Unbiased = %v, want 1", unbiased)
	}
}

func TestUnbiasedRejectsSmallSamples(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
	}{
		{"empty", nil},
		{"single value", []float64{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unbiased(tt.sample)
			if !errors.Is(err, ErrDivisionUndefined) {
				t.Errorf("Unbiased(%v) err = %v, want ErrDivisionUndefined", tt.sample, err)
			}
		})
	}
}

func TestBiasedDegenerateSizes(t *testing.T) {
	if got := Biased(nil); got != 0 {
		t.Errorf("Biased(nil) = %v, want 0", got)
	}
	if got := Biased([]float64{42}); got != 0 {
		t.Errorf("Biased([42]) = %v, want 0", got)
	}
}

func TestConstantSampleHasZeroVariance(t *testing.T) {
	sample := []float64{5, 5, 5, 5}

	if got := Biased(sample); got != 0 {
		t.Errorf("Biased = %v, want 0", got)
	}
	unbiased, err := Unbiased(sample)
	if err != nil {
		t.Fatalf("Unbiased: %v", err)
	}
	if unbiased != 0 {
		t.Errorf("Unbiased = %v, want 0", unbiased)
	}
}

// TestBiasedNeverExceedsUnbiased checks the n/(n-1) ordering over random
// samples: the biased estimate is strictly smaller whenever the sample has
// any spread at all.
func TestBiasedNeverExceedsUnbiased(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 17))

	for i := 0; i < 500; i++ {
		n := 2 + rng.IntN(9)
		sample := make([]float64, n)
		for j := range sample {
			sample[j] = rng.Float64()*40 - 20
		}

		biased := Biased(sample)
		unbiased, err := Unbiased(sample)
		if err != nil {
			t.Fatalf("Unbiased: %v", err)
		}

		if biased >= unbiased {
			t.Fatalf("Biased = %v not below Unbiased = %v for sample %v", biased, unbiased, sample)
		}
		// Exact relationship: unbiased = biased * n/(n-1).
		want := biased * float64(n) / float64(n-1)
		if diff := math.Abs(unbiased - want); diff > 1e-9 {
			t.Fatalf("Unbiased = %v, want biased*n/(n-1) = %v", unbiased, want)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{2, 4, 9}); math.Abs(got-5) > 1e-12 {
		t.Errorf("Mean = %v, want 5", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
}

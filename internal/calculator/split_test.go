package calculator

import (
	"math"
	"testing"
)

func TestSplitWeight(t *testing.T) {
	tests := []struct {
		name       string
		weight     int
		performers int
		want       float64
		wantErr    bool
	}{
		{name: "single performer keeps full weight", weight: 5, performers: 1, want: 5},
		{name: "weight 3 shared by two", weight: 3, performers: 2, want: 1.5},
		{name: "weight 8 shared by three", weight: 8, performers: 3, want: 8.0 / 3.0},
		{name: "weight 1 shared by four", weight: 1, performers: 4, want: 0.25},
		{name: "zero performers should error", weight: 2, performers: 0, wantErr: true},
		{name: "weight outside the scale should error", weight: 4, performers: 1, wantErr: true},
		{name: "zero weight should error", weight: 0, performers: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitWeight(tt.weight, tt.performers)
			if (err != nil) != tt.wantErr {
				t.Errorf("SplitWeight() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SplitWeight(%d, %d) = %v, want %v", tt.weight, tt.performers, got, tt.want)
			}
		})
	}
}

func TestSplitWeightSumsBack(t *testing.T) {
	// Shares of a batch always add back up to the chore weight.
	for _, w := range []int{1, 2, 3, 5, 8} {
		for n := 1; n <= 7; n++ {
			share, err := SplitWeight(w, n)
			if err != nil {
				t.Fatalf("SplitWeight(%d, %d) failed: %v", w, n, err)
			}
			if sum := share * float64(n); math.Abs(sum-float64(w)) > 1e-9 {
				t.Errorf("weight %d split %d ways sums to %v", w, n, sum)
			}
		}
	}
}

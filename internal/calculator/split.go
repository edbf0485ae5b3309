package calculator

import (
	"fmt"

	"github.com/mmynk/choreshare/internal/models"
)

// SplitWeight computes each co-performer's share of a chore's weight.
// The weight is divided evenly with no rounding: weight 3 shared by two
// performers is 1.5 each.
func SplitWeight(weight int, performers int) (float64, error) {
	if !models.IsValidWeight(weight) {
		return 0, fmt.Errorf("weight %d is not one of %v", weight, models.AllowedWeights)
	}
	if performers < 1 {
		return 0, fmt.Errorf("must have at least one performer")
	}
	return float64(weight) / float64(performers), nil
}

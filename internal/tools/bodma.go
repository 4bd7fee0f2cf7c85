package tools

import (
	"context"
	"fmt"
	"math"

	"prodma/internal/registry"
)

// Bodma computes (a^b) / (a*b).
func Bodma() registry.Descriptor {
	return registry.Descriptor{
		Name:        "bodma",
		Description: "BODMA: (a^b) / (a*b). Example: bodma(2,3) = 8/6 ≈ 1.333",
		Params:      []string{"a", "b"},
		Required:    []string{"a", "b"},
		Handler: func(ctx context.Context, args map[string]float64) (float64, error) {
			a, b := args["a"], args["b"]
			if a*b == 0 {
				return 0, fmt.Errorf("%w: a*b cannot be 0, division by zero", registry.ErrInvalidArgument)
			}
			return math.Pow(a, b) / (a * b), nil
		},
	}
}

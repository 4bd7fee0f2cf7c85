package tools

import (
	"context"
	"fmt"
	"math"

	"prodma/internal/registry"
)

// Codma computes (a*b) / (a^b), the inverse of bodma.
func Codma() registry.Descriptor {
	return registry.Descriptor{
		Name:        "codma",
		Description: "CODMA: (a*b) / (a^b). Inverse of BODMA. Example: codma(2,3) = 6/8 = 0.75",
		Params:      []string{"a", "b"},
		Required:    []string{"a", "b"},
		Handler: func(ctx context.Context, args map[string]float64) (float64, error) {
			a, b := args["a"], args["b"]
			if math.Pow(a, b) == 0 {
				return 0, fmt.Errorf("%w: a^b cannot be 0, division by zero", registry.ErrInvalidArgument)
			}
			return (a * b) / math.Pow(a, b), nil
		},
	}
}

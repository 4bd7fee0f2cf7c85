package tools

import (
	"context"
	"fmt"
	"math"

	"prodma/internal/clock"
	"prodma/internal/registry"
)

// Prodma computes (a^b) * (b^a). Unlike the other tools it carries an
// availability predicate: it is advertised and callable only while the
// current hour falls inside the window. The description names the window so
// the model can explain a rejection to the user.
func Prodma(w clock.Window, clk clock.Clock) registry.Descriptor {
	return registry.Descriptor{
		Name: "prodma",
		Description: fmt.Sprintf(
			"PRODMA: (a^b) * (b^a). Example: prodma(2,3) = 8*9 = 72. Available %02d:00-%02d:00 only.",
			w.StartHour, w.EndHour,
		),
		Params:    []string{"a", "b"},
		Required:  []string{"a", "b"},
		Available: func() bool { return w.Contains(clk.Hour()) },
		Handler: func(ctx context.Context, args map[string]float64) (float64, error) {
			a, b := args["a"], args["b"]
			return math.Pow(a, b) * math.Pow(b, a), nil
		},
	}
}

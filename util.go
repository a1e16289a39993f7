package main

import (
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// NewPlayerID returns a time-ordered UUIDv7 string
func NewPlayerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// FoldName returns the case-folded form used for username comparison
func FoldName(name string) string {
	// Casers carry state, so one per call
	return cases.Fold().String(name)
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

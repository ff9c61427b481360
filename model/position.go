package model

import "math"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Clamp keeps the position inside the rectangle [minX,maxX]x[minY,maxY].
func (p Position) Clamp(minX, minY, maxX, maxY float64) Position {
	return Position{
		X: math.Max(minX, math.Min(maxX, p.X)),
		Y: math.Max(minY, math.Min(maxY, p.Y)),
	}
}

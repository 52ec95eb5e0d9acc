// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package geometry provides the pixel-space primitives shared by every
// detection layer: axis-aligned bounding boxes and the overlap math used
// during deduplication.
package geometry

import "math"

// Box is an axis-aligned bounding box in pixel coordinates with a top-left
// origin. Page is a zero-based page index; boxes on different pages never
// overlap no matter what their coordinates say.
type Box struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Page int     `json:"page"`
}

// IsZero reports whether the box is a degenerate zero-area placeholder.
func (b Box) IsZero() bool {
	return b.W <= 0 || b.H <= 0
}

// Area returns the box area in square pixels. Degenerate boxes have area 0.
func (b Box) Area() float64 {
	if b.IsZero() {
		return 0
	}
	return b.W * b.H
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// CenterY returns the vertical midpoint, used for line grouping.
func (b Box) CenterY() float64 { return b.Y + b.H/2 }

// Union returns the smallest box covering both operands. A degenerate
// operand does not extend the result; the page of the first non-degenerate
// operand wins.
func Union(a, b Box) Box {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	right := math.Max(a.Right(), b.Right())
	bottom := math.Max(a.Bottom(), b.Bottom())
	return Box{X: x, Y: y, W: right - x, H: bottom - y, Page: a.Page}
}

// Intersects reports whether two boxes share any area on the same page.
func Intersects(a, b Box) bool {
	return a.Page == b.Page && intersectionArea(a, b) > 0
}

// IoU returns the intersection-over-union of two boxes in [0,1]. Boxes on
// different pages always score 0, as do degenerate boxes.
func IoU(a, b Box) float64 {
	if a.Page != b.Page {
		return 0
	}
	inter := intersectionArea(a, b)
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func intersectionArea(a, b Box) float64 {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.Right(), b.Right())
	y2 := math.Min(a.Bottom(), b.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

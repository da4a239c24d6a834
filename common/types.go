// Package common contains plain data types and helpers shared by every engine package.
package common

// ScreenSize is a size in physical pixels.
type ScreenSize struct {
	Width  uint32
	Height uint32
}

// Scaled returns the size multiplied by factor.
func (s ScreenSize) Scaled(factor uint32) ScreenSize {
	return ScreenSize{Width: s.Width * factor, Height: s.Height * factor}
}

// Empty reports whether either dimension is zero, e.g. for a minimized window.
func (s ScreenSize) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// ScreenPosition is a position in physical pixels from the top left corner.
type ScreenPosition struct {
	X float32
	Y float32
}

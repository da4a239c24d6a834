package window

import "github.com/Carmen-Shannon/oxy-ro/common"

// WindowBuilderOption is a functional option for configuring a window.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size in screen coordinates.
// An empty size keeps the default of 1280x720.
//
// Parameters:
//   - size: the initial size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(size common.ScreenSize) WindowBuilderOption {
	return func(w *engineWindow) {
		if !size.Empty() {
			w.size = size
		}
	}
}

// WithMinSize sets the smallest size the user can resize the window to.
//
// Parameters:
//   - size: the minimum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(size common.ScreenSize) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize = size
	}
}

// WithResizable sets whether the user can resize the window.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}

package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ro/common"
)

func TestResizedSkipsEmptyAndUnchangedSizes(t *testing.T) {
	w := &engineWindow{size: common.ScreenSize{Width: 800, Height: 600}}
	var got []common.ScreenSize
	w.SetResizeCallback(func(size common.ScreenSize) { got = append(got, size) })

	w.resized(common.ScreenSize{Width: 800, Height: 600})
	w.resized(common.ScreenSize{})
	w.resized(common.ScreenSize{Width: 1024, Height: 768})

	if len(got) != 1 || got[0] != (common.ScreenSize{Width: 1024, Height: 768}) {
		t.Fatalf("resize callbacks = %v", got)
	}
	if w.Size() != (common.ScreenSize{Width: 1024, Height: 768}) {
		t.Errorf("size = %v", w.Size())
	}
}

func TestMouseButtonCarriesCursor(t *testing.T) {
	w := &engineWindow{}
	var pos common.ScreenPosition
	var button MouseButton
	w.SetMouseButtonCallback(func(b MouseButton, pressed bool, p common.ScreenPosition) {
		if pressed {
			button, pos = b, p
		}
	})

	w.cursorMoved(common.ScreenPosition{X: 12, Y: 34})
	w.mouseButton(MouseButtonRight, true)

	if button != MouseButtonRight || pos != (common.ScreenPosition{X: 12, Y: 34}) {
		t.Errorf("button %v at %v", button, pos)
	}
	if w.CursorPosition() != pos {
		t.Errorf("cursor = %v", w.CursorPosition())
	}
}

func TestCallbacksAreOptional(t *testing.T) {
	w := &engineWindow{}
	w.resized(common.ScreenSize{Width: 1, Height: 1})
	w.iconified(true)
	w.key(common.KeyEsc, true)
	w.mouseButton(MouseButtonLeft, false)
	w.scrolled(1)

	if w.Poll() {
		t.Error("a window without a platform window reported running")
	}
	if err := w.Close(); err == nil {
		t.Error("closing a closed window returned nil")
	}
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{size: common.ScreenSize{Width: 1280, Height: 720}}
	for _, opt := range []WindowBuilderOption{
		WithTitle("Prontera"),
		WithSize(common.ScreenSize{}),
		WithMinSize(common.ScreenSize{Width: 320, Height: 240}),
		WithResizable(false),
	} {
		opt(w)
	}
	if w.title != "Prontera" || w.size.Width != 1280 || w.minSize.Width != 320 || w.resizable {
		t.Errorf("window = %+v", w)
	}
}

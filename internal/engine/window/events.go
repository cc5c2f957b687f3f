package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies viewer events.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event is a translated SDL event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int32
	Height int32
	X, Y   int32
	// DX, DY are relative motion for moves and scroll amounts for the wheel.
	DX, DY  float32
	Button  uint8
	Buttons uint32
}

// Poll drains the SDL queue. It returns false once the user asks to quit.
func (w *Window) Poll() bool {
	w.events = w.events[:0]
	running := true
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		e, ok := translate(ev)
		if !ok {
			continue
		}
		if e.Type == EventQuit {
			running = false
		}
		w.events = append(w.events, e)
	}
	return running
}

// Events returns the events of the last Poll.
func (w *Window) Events() []Event {
	return w.events
}

// KeyPressed reports whether key went down during the last Poll.
func (w *Window) KeyPressed(key sdl.Scancode) bool {
	for _, e := range w.events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}

func translate(ev sdl.Event) (Event, bool) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventResize, Width: e.Data1, Height: e.Data2}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		switch e.Type {
		case sdl.KEYDOWN:
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		case sdl.KEYUP:
			return Event{Type: EventKeyUp, Key: e.Keysym.Scancode}, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:    EventMouseMove,
			X:       e.X,
			Y:       e.Y,
			DX:      float32(e.XRel),
			DY:      float32(e.YRel),
			Buttons: e.State,
		}, true

	case *sdl.MouseButtonEvent:
		t := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			t = EventMouseDown
		}
		return Event{Type: t, X: e.X, Y: e.Y, Button: e.Button}, true

	case *sdl.MouseWheelEvent:
		return Event{Type: EventMouseWheel, DX: float32(e.X), DY: float32(e.Y)}, true
	}
	return Event{}, false
}

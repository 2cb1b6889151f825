// Package events broadcasts state changes of the light to observers such
// as the status pane and the debug log. Delivery is asynchronous.
package events

import (
	"log/slog"

	"github.com/kelindar/event"
)

// Publisher is the part of the bus the core depends on.
type Publisher interface {
	Publish(Event)
}

// Bus wraps a kelindar/event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish hands ev to all subscribers of its type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ColorChanged:
		event.Publish(b.dispatcher, e)
	case ModeChanged:
		event.Publish(b.dispatcher, e)
	case PresetsChanged:
		event.Publish(b.dispatcher, e)
	case AnimationToggled:
		event.Publish(b.dispatcher, e)
	case GestureDetected:
		event.Publish(b.dispatcher, e)
	default:
		slog.Warn("Dropping unknown event", "type", ev.Type())
	}
}

// Subscribe registers handler for the event type of its argument and
// returns the function that cancels the subscription. Handlers of an
// unknown type are ignored.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ColorChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(ModeChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(PresetsChanged):
		return event.Subscribe(b.dispatcher, h)
	case func(AnimationToggled):
		return event.Subscribe(b.dispatcher, h)
	case func(GestureDetected):
		return event.Subscribe(b.dispatcher, h)
	default:
		slog.Warn("Ignoring subscription with unsupported handler type")
		return func() {}
	}
}

// LogAll subscribes a debug logger to every event type.
func (b *Bus) LogAll() func() {
	cancels := []func(){
		b.Subscribe(func(e ColorChanged) { slog.Debug("Color changed", "hsv", e.HSV, "rgb", e.RGB) }),
		b.Subscribe(func(e ModeChanged) { slog.Debug("Mode changed", "mode", e.Mode) }),
		b.Subscribe(func(e PresetsChanged) { slog.Debug("Presets changed", "names", e.Names) }),
		b.Subscribe(func(e AnimationToggled) { slog.Debug("Animation toggled", "active", e.Active) }),
		b.Subscribe(func(e GestureDetected) { slog.Debug("Gesture", "gesture", e.Gesture) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(Event) {}

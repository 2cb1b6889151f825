package platform

import (
	"log/slog"

	"lautenbacher.net/golight/output"
)

// HeadlessPlatform has neither button nor light. Frames are logged at
// debug level.
type HeadlessPlatform struct {
	*AbstractPlatform
}

func NewHeadlessPlatform() *HeadlessPlatform {
	inst := &HeadlessPlatform{}
	inst.AbstractPlatform = newAbstractPlatform(func(f output.Frame) {
		slog.Debug("Frame", "channels", f)
	})
	return inst
}

func (s *HeadlessPlatform) Start() error {
	s.startDisplay()
	return nil
}

func (s *HeadlessPlatform) Stop() {
	s.stopDisplay()
}

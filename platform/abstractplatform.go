package platform

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"lautenbacher.net/golight/output"
	"lautenbacher.net/golight/util"
)

type AbstractPlatform struct {
	buttonEdges     chan bool
	pressed         atomic.Bool
	frames          *util.Latest[output.Frame]
	displayFunc     func(output.Frame)
	displayWg       sync.WaitGroup
	displayStopChan chan struct{}
	stopOnce        sync.Once
	shutdownMutex   sync.RWMutex
	isShuttingDown  bool
}

func newAbstractPlatform(displayFunc func(output.Frame)) *AbstractPlatform {
	return &AbstractPlatform{
		buttonEdges:     make(chan bool, 16),
		frames:          util.NewLatest[output.Frame](),
		displayFunc:     displayFunc,
		displayStopChan: make(chan struct{}),
	}
}

func (s *AbstractPlatform) ButtonEdges() <-chan bool {
	return s.buttonEdges
}

func (s *AbstractPlatform) ButtonPressed() bool {
	return s.pressed.Load()
}

func (s *AbstractPlatform) SetChannels(f output.Frame) {
	s.frames.Send(f)
}

// edge records the new level and queues the transition. It gives up once
// the platform is stopped.
func (s *AbstractPlatform) edge(pressed bool) {
	s.pressed.Store(pressed)
	select {
	case s.buttonEdges <- pressed:
	case <-s.displayStopChan:
	}
}

func (s *AbstractPlatform) startDisplay() {
	s.displayWg.Add(1)
	go s.displayDriver()
}

// stopDisplay ends the display goroutine, it is safe to call twice.
func (s *AbstractPlatform) stopDisplay() {
	s.stopOnce.Do(func() {
		s.shutdownMutex.Lock()
		s.isShuttingDown = true
		s.shutdownMutex.Unlock()
		close(s.displayStopChan)
	})
	s.displayWg.Wait()
}

func (s *AbstractPlatform) displayDriver() {
	defer s.displayWg.Done()
	for {
		select {
		case <-s.displayStopChan:
			slog.Info("Ending DisplayDriver go-routine...")
			return
		case <-s.frames.Channel():
			s.shutdownMutex.RLock()
			if !s.isShuttingDown {
				s.displayFunc(s.frames.Value())
			}
			s.shutdownMutex.RUnlock()
		}
	}
}

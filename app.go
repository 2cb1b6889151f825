package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/golight/animation"
	"lautenbacher.net/golight/cli"
	"lautenbacher.net/golight/config"
	"lautenbacher.net/golight/engine"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/gesture"
	"lautenbacher.net/golight/output"
	"lautenbacher.net/golight/persist"
	"lautenbacher.net/golight/platform"
	"lautenbacher.net/golight/preset"
	"lautenbacher.net/golight/sched"
)

const stopTimeout = 2 * time.Second

// App wires the light together. Everything but Start, Stop and Exec runs
// on the dispatch loop.
type App struct {
	conf     *config.Config
	platform platform.Platform
	bus      *events.Bus
	loop     *sched.Loop

	state    *persist.State
	mixer    *output.Mixer
	engine   *engine.Engine
	presets  *preset.Store
	anim     *animation.Animation
	night    *animation.NightSchedule
	detector *gesture.Detector
	shell    *cli.Shell

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp loads the persisted state and builds all components. Nothing runs
// before Start.
func NewApp(conf *config.Config, plat platform.Platform, bus *events.Bus) (*App, error) {
	flash := persist.NewFileFlash(conf.Storage.File, conf.Storage.PageSize)
	store := persist.NewStore(flash, conf.Codec(), conf.Identifier)
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state from %s: %w", conf.Storage.File, err)
	}

	a := &App{
		conf:     conf,
		platform: plat,
		bus:      bus,
		loop:     sched.NewLoop(),
		state:    &state,
	}
	a.mixer = output.NewMixer(plat)
	a.engine = engine.New(a.loop, a.state, store, a.mixer, bus, conf.EngineConfig())
	a.presets = preset.New(a.state, store, a.engine, bus)
	a.anim = animation.New(a.loop, conf.AnimationConfig(), a.mixer, bus)
	if conf.Animation.Night.Enabled {
		a.night = animation.NewNightSchedule(a.loop, conf.NightConfig(), a.anim, time.Now)
	}
	a.detector = gesture.New(a.loop, conf.GestureConfig(), plat.ButtonPressed, a.onGesture)
	a.shell = cli.NewShell(a.engine, a.presets, a.anim)

	slog.Info("Light ready",
		"color", state.Active,
		"presets", len(state.Presets),
		"format", conf.Codec().Name(),
		"trigger", conf.TriggerMode())
	return a, nil
}

// Start runs the dispatch loop and forwards the button edges to it.
func (a *App) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.loop.Run(a.ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.forwardEdges()
	}()

	a.loop.Post(func() {
		if a.conf.TriggerMode() == config.TriggerStartup {
			if err := a.anim.Start(); err != nil {
				slog.Warn("Failed to start animation", "error", err)
			}
		}
		if a.night != nil {
			a.night.Start()
		}
	})
}

func (a *App) forwardEdges() {
	edges := a.platform.ButtonEdges()
	for {
		select {
		case <-a.ctx.Done():
			return
		case pressed := <-edges:
			a.loop.Post(func() { a.detector.OnEdge(pressed) })
		}
	}
}

// onGesture routes a classified button event. With the double click
// trigger the button only toggles the animation.
func (a *App) onGesture(ev gesture.Event) {
	a.bus.Publish(events.GestureDetected{Gesture: ev.String()})
	if a.conf.TriggerMode() != config.TriggerDoubleClick {
		a.engine.OnGesture(ev)
		return
	}
	if ev != gesture.DoubleClick {
		return
	}
	if _, err := a.anim.Toggle(); err != nil {
		slog.Warn("Failed to toggle animation", "error", err)
	}
}

// Exec runs one console line on the dispatch loop and writes the reply to w.
func (a *App) Exec(ctx context.Context, w io.Writer, line string) error {
	var err error
	if callErr := a.loop.Call(ctx, func() { err = a.shell.Exec(w, line) }); callErr != nil {
		return callErr
	}
	return err
}

// Stop halts all timers and ends the loop. The platform switches the light
// off when it is stopped.
func (a *App) Stop() {
	if a.cancel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	err := a.loop.Call(ctx, func() {
		a.detector.Close()
		if a.night != nil {
			a.night.Stop()
		}
		a.anim.Stop()
		a.engine.Close()
	})
	if err != nil {
		slog.Warn("Dispatch loop did not stop in time", "error", err)
	}
	a.cancel()
	a.wg.Wait()
	a.cancel = nil
}

package animation

import (
	"log/slog"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"lautenbacher.net/golight/sched"
)

type NightConfig struct {
	Latitude      float64
	Longitude     float64
	CheckInterval time.Duration
}

// Switch is what the night schedule turns on and off.
type Switch interface {
	Start() error
	Stop()
}

// NightSchedule runs the animation between sunset and sunrise. Only the
// transitions act on it, a manual toggle in between stays in effect.
type NightSchedule struct {
	cfg   NightConfig
	sw    Switch
	now   func() time.Time
	timer sched.Timer

	known bool
	night bool
}

// NewNightSchedule creates a stopped schedule. now defaults to time.Now.
func NewNightSchedule(s sched.Scheduler, cfg NightConfig, sw Switch, now func() time.Time) *NightSchedule {
	if now == nil {
		now = time.Now
	}
	n := &NightSchedule{cfg: cfg, sw: sw, now: now}
	n.timer = s.Every(cfg.CheckInterval, n.Check)
	return n
}

// Start checks once right away and then periodically.
func (n *NightSchedule) Start() {
	n.Check()
	n.timer.Start()
}

func (n *NightSchedule) Stop() {
	n.timer.Stop()
}

// Check compares the current time with today's sunrise and sunset.
func (n *NightSchedule) Check() {
	night := IsNight(n.now(), n.cfg.Latitude, n.cfg.Longitude)
	if n.known && night == n.night {
		return
	}
	first := !n.known
	n.known = true
	n.night = night

	if first && !night {
		return
	}
	if night {
		slog.Info("Night begins, starting animation")
		if err := n.sw.Start(); err != nil {
			slog.Warn("Failed to start animation", "error", err)
		}
		return
	}
	slog.Info("Day begins, stopping animation")
	n.sw.Stop()
}

// IsNight reports whether t lies before sunrise or after sunset of its day.
// Where the sun neither rises nor sets that day it is never night.
func IsNight(t time.Time, latitude, longitude float64) bool {
	rise, set := sunrise.SunriseSunset(latitude, longitude, t.Year(), t.Month(), t.Day())
	if rise.IsZero() || set.IsZero() {
		return false
	}
	return t.Before(rise) || t.After(set)
}

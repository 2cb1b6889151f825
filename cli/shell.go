// Package cli implements the line oriented command console of the light.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/exp/slices"

	"lautenbacher.net/golight/animation"
	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/engine"
	"lautenbacher.net/golight/persist"
	"lautenbacher.net/golight/preset"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
	ErrRange          = errors.New("value out of range")
	ErrUnavailable    = errors.New("not available")
)

// Light is the color engine as seen from the console.
type Light interface {
	SetHSV(h, s, v int) error
	SetRGB(r, g, b int) error
	Active() color.HSV
	ActiveRGB() color.RGB
	Mode() engine.Mode
}

type Presets interface {
	Save(c color.HSV, name string) error
	Delete(name string) error
	Apply(name string) error
	List() []persist.Entry
}

type Blinker interface {
	Active() bool
	Start() error
	Stop()
	Toggle() (bool, error)
}

type command struct {
	name  string
	usage string
	help  string
	run   func(w io.Writer, args []string) error
}

// Shell executes console lines. It must be used from the dispatch context
// that owns the light.
type Shell struct {
	light    Light
	presets  Presets
	blinker  Blinker
	commands []command
}

// NewShell creates a shell. blinker may be nil when the animation is not
// controlled from the console.
func NewShell(light Light, presets Presets, blinker Blinker) *Shell {
	s := &Shell{light: light, presets: presets, blinker: blinker}
	s.commands = []command{
		{"RGB", "RGB <r> <g> <b>", "Set color using RGB values (0-255)", s.rgb},
		{"HSV", "HSV <h> <s> <v>", "Set color using HSV model (H:0-360, S:0-100, V:0-100)", s.hsv},
		{"add_rgb_color", "add_rgb_color <r> <g> <b> <name>", "Save RGB color to list", s.addRGB},
		{"add_hsv_color", "add_hsv_color <h> <s> <v> <name>", "Save HSV color to list", s.addHSV},
		{"add_current_color", "add_current_color <name>", "Save current color", s.addCurrent},
		{"del_color", "del_color <name>", "Delete color from list", s.del},
		{"apply_color", "apply_color <name>", "Apply saved color", s.apply},
		{"list_colors", "list_colors", "Show saved colors", s.list},
		{"blink", "blink [on|off]", "Toggle the identifier blink pattern", s.blink},
		{"status", "status", "Show mode, color and animation state", s.status},
		{"help", "help", "Print information about supported commands", s.help},
	}
	return s
}

// Exec runs one line and writes the reply to w. An empty line does nothing.
// Rejected commands change nothing and return an error after the reply
// has been written.
func (s *Shell) Exec(w io.Writer, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return nil
	}

	i := slices.IndexFunc(s.commands, func(c command) bool {
		return strings.EqualFold(c.name, args[0])
	})
	if i < 0 {
		fmt.Fprintf(w, "Unknown command '%s'. Type 'help'.\n", args[0])
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return s.commands[i].run(w, args[1:])
}

// Names lists the command names in help order.
func (s *Shell) Names() []string {
	names := make([]string, len(s.commands))
	for i, c := range s.commands {
		names[i] = c.name
	}
	return names
}

func (s *Shell) usage(w io.Writer, name string) error {
	i := slices.IndexFunc(s.commands, func(c command) bool { return c.name == name })
	fmt.Fprintf(w, "Usage: %s\n", s.commands[i].usage)
	return fmt.Errorf("%w: %s", ErrUsage, name)
}

// ints parses all args as decimal integers.
func ints(args []string) ([]int, bool) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

func parseRGB(args []string) ([]int, bool, bool) {
	v, ok := ints(args)
	if !ok {
		return nil, false, false
	}
	for _, c := range v {
		if !inRange(c, 0, 255) {
			return v, true, false
		}
	}
	return v, true, true
}

func parseHSV(args []string) ([]int, bool, bool) {
	v, ok := ints(args)
	if !ok {
		return nil, false, false
	}
	valid := inRange(v[0], 0, color.MaxHue) && inRange(v[1], 0, color.MaxSV) && inRange(v[2], 0, color.MaxSV)
	return v, true, valid
}

func rgbRangeError(w io.Writer) error {
	fmt.Fprintln(w, "Error: Values must be 0-255")
	return ErrRange
}

func hsvRangeError(w io.Writer) error {
	fmt.Fprintln(w, "Error: H must be 0-360, S and V must be 0-100")
	return ErrRange
}

func failed(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %v\n", err)
	return err
}

func (s *Shell) rgb(w io.Writer, args []string) error {
	if len(args) != 3 {
		return s.usage(w, "RGB")
	}
	v, ok, valid := parseRGB(args)
	if !ok {
		return s.usage(w, "RGB")
	}
	if !valid {
		return rgbRangeError(w)
	}
	if err := s.light.SetRGB(color.Scale8(v[0]), color.Scale8(v[1]), color.Scale8(v[2])); err != nil {
		return failed(w, err)
	}
	fmt.Fprintf(w, "Color set to R=%d G=%d B=%d\n", v[0], v[1], v[2])
	return nil
}

func (s *Shell) hsv(w io.Writer, args []string) error {
	if len(args) != 3 {
		return s.usage(w, "HSV")
	}
	v, ok, valid := parseHSV(args)
	if !ok {
		return s.usage(w, "HSV")
	}
	if !valid {
		return hsvRangeError(w)
	}
	if err := s.light.SetHSV(v[0], v[1], v[2]); err != nil {
		return failed(w, err)
	}
	fmt.Fprintf(w, "Color set to H=%d S=%d V=%d\n", v[0], v[1], v[2])
	return nil
}

func (s *Shell) save(w io.Writer, c color.HSV, name, reply string) error {
	err := s.presets.Save(c, name)
	switch {
	case err == nil:
		fmt.Fprintf(w, reply, name)
		return nil
	case errors.Is(err, preset.ErrFull):
		fmt.Fprintf(w, "Error: Storage full (max %d).\n", persist.Capacity)
	case errors.Is(err, preset.ErrDuplicate):
		fmt.Fprintf(w, "Error: Color '%s' already exists.\n", persist.TruncateName(name))
	case errors.Is(err, preset.ErrInvalidName):
		fmt.Fprintln(w, "Error: Name must not be empty.")
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return err
}

func (s *Shell) addRGB(w io.Writer, args []string) error {
	if len(args) != 4 {
		return s.usage(w, "add_rgb_color")
	}
	v, ok, valid := parseRGB(args[:3])
	if !ok {
		return s.usage(w, "add_rgb_color")
	}
	if !valid {
		return rgbRangeError(w)
	}
	c := color.ClampRGB(color.Scale8(v[0]), color.Scale8(v[1]), color.Scale8(v[2])).HSV()
	return s.save(w, c, args[3], "Color '%s' saved.\n")
}

func (s *Shell) addHSV(w io.Writer, args []string) error {
	if len(args) != 4 {
		return s.usage(w, "add_hsv_color")
	}
	v, ok, valid := parseHSV(args[:3])
	if !ok {
		return s.usage(w, "add_hsv_color")
	}
	if !valid {
		return hsvRangeError(w)
	}
	return s.save(w, color.ClampHSV(v[0], v[1], v[2]), args[3], "Color '%s' saved.\n")
}

func (s *Shell) addCurrent(w io.Writer, args []string) error {
	if len(args) != 1 {
		return s.usage(w, "add_current_color")
	}
	return s.save(w, s.light.Active(), args[0], "Current color saved as '%s'.\n")
}

func (s *Shell) del(w io.Writer, args []string) error {
	if len(args) != 1 {
		return s.usage(w, "del_color")
	}
	err := s.presets.Delete(args[0])
	switch {
	case err == nil:
		fmt.Fprintf(w, "Deleted '%s'.\n", args[0])
	case errors.Is(err, preset.ErrNotFound):
		fmt.Fprintf(w, "Not found: '%s'.\n", args[0])
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return err
}

func (s *Shell) apply(w io.Writer, args []string) error {
	if len(args) != 1 {
		return s.usage(w, "apply_color")
	}
	err := s.presets.Apply(args[0])
	switch {
	case err == nil:
		fmt.Fprintf(w, "Applied '%s'.\n", args[0])
	case errors.Is(err, preset.ErrNotFound):
		fmt.Fprintf(w, "Not found: '%s'.\n", args[0])
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return err
}

func (s *Shell) list(w io.Writer, args []string) error {
	if len(args) != 0 {
		return s.usage(w, "list_colors")
	}
	entries := s.presets.List()
	fmt.Fprintf(w, "Saved colors (%d/%d):\n", len(entries), persist.Capacity)
	for i, e := range entries {
		fmt.Fprintf(w, "%d) %s [H:%d S:%d V:%d]\n", i+1, e.Name, e.Color.H, e.Color.S, e.Color.V)
	}
	return nil
}

func (s *Shell) blink(w io.Writer, args []string) error {
	if len(args) > 1 {
		return s.usage(w, "blink")
	}
	if s.blinker == nil {
		fmt.Fprintln(w, "Error: Animation is not available.")
		return ErrUnavailable
	}

	var err error
	switch {
	case len(args) == 0:
		_, err = s.blinker.Toggle()
	case strings.EqualFold(args[0], "on"):
		err = s.blinker.Start()
	case strings.EqualFold(args[0], "off"):
		s.blinker.Stop()
	default:
		return s.usage(w, "blink")
	}

	if errors.Is(err, animation.ErrNoChannels) {
		fmt.Fprintln(w, "Error: No blink pattern configured.")
		return err
	}
	if err != nil {
		return failed(w, err)
	}
	fmt.Fprintf(w, "Animation %s.\n", onOff(s.blinker.Active()))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (s *Shell) status(w io.Writer, args []string) error {
	if len(args) != 0 {
		return s.usage(w, "status")
	}
	c := s.light.Active()
	rgb := s.light.ActiveRGB()
	fmt.Fprintf(w, "Mode: %s\n", s.light.Mode())
	fmt.Fprintf(w, "Color: H=%d S=%d V=%d (R=%d G=%d B=%d)\n", c.H, c.S, c.V, rgb.R, rgb.G, rgb.B)
	if s.blinker != nil {
		fmt.Fprintf(w, "Animation: %s\n", onOff(s.blinker.Active()))
	}
	fmt.Fprintf(w, "Presets: %d/%d\n", len(s.presets.List()), persist.Capacity)
	return nil
}

func (s *Shell) help(w io.Writer, _ []string) error {
	fmt.Fprintln(w, "Supported commands:")
	width := 0
	for _, c := range s.commands {
		width = max(width, len(c.usage))
	}
	for _, c := range s.commands {
		fmt.Fprintf(w, "  %-*s - %s\n", width, c.usage, c.help)
	}
	return nil
}

package platform

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/tview"

	"lautenbacher.net/golight/config"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/logging"
	"lautenbacher.net/golight/output"
)

// ConsoleFunc runs one console line and returns the reply.
type ConsoleFunc func(line string) string

type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	lightView    *tview.TextView
	statusView   *tview.TextView
	consoleView  *tview.TextView
	logView      *tview.TextView
	input        *tview.InputField
	ossignalChan chan os.Signal
	console      ConsoleFunc
	clickStep    time.Duration
	status       status
	unsubscribe  func()
	logFlushOnce sync.Once
	readyChan    chan bool
}

// status is what the status pane shows, fed by the event bus.
type status struct {
	mu       sync.Mutex
	mode     string
	color    events.ColorChanged
	presets  []string
	blinking bool
	gesture  string
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal, console ConsoleFunc) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		console:      console,
		clickStep:    2 * conf.Button.Debounce,
		readyChan:    make(chan bool),
		unsubscribe:  func() {},
	}
	inst.status.mode = "none"
	inst.AbstractPlatform = newAbstractPlatform(inst.DisplayFrame)
	return inst
}

// Ready is closed once the TUI has been drawn and took over the log output.
func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

// Observe feeds the status pane from bus until Stop.
func (s *TUIPlatform) Observe(bus *events.Bus) {
	cancels := []func(){
		bus.Subscribe(func(e events.ColorChanged) {
			s.updateStatus(func(st *status) { st.color = e })
		}),
		bus.Subscribe(func(e events.ModeChanged) {
			s.updateStatus(func(st *status) { st.mode = e.Mode })
		}),
		bus.Subscribe(func(e events.PresetsChanged) {
			s.updateStatus(func(st *status) { st.presets = e.Names })
		}),
		bus.Subscribe(func(e events.AnimationToggled) {
			s.updateStatus(func(st *status) { st.blinking = e.Active })
		}),
		bus.Subscribe(func(e events.GestureDetected) {
			s.updateStatus(func(st *status) { st.gesture = e.Gesture })
		}),
	}
	s.unsubscribe = func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()
	s.startDisplay()
	return nil
}

func (s *TUIPlatform) Stop() {
	s.unsubscribe()
	s.stopDisplay()
	logging.Detach()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// DisplayFrame redraws the light pane. It is called by the display driver.
func (s *TUIPlatform) DisplayFrame(f output.Frame) {
	s.tviewapp.QueueUpdateDraw(func() {
		s.lightView.SetText(renderFrame(f))
	})
}

func (s *TUIPlatform) updateStatus(change func(*status)) {
	s.status.mu.Lock()
	change(&s.status)
	text := s.status.render()
	s.status.mu.Unlock()

	if s.tviewapp != nil {
		s.tviewapp.QueueUpdateDraw(func() {
			s.statusView.SetText(text)
		})
	}
}

func (st *status) render() string {
	blink := "off"
	if st.blinking {
		blink = "on"
	}
	presets := "-"
	if len(st.presets) > 0 {
		presets = strings.Join(st.presets, ", ")
	}
	return fmt.Sprintf(" Mode:      [yellow]%s[-]\n HSV:       %s\n RGB:       %s\n Animation: %s\n Presets:   %s\n Gesture:   %s",
		st.mode, st.color.HSV, st.color.RGB, blink, tview.Escape(presets), st.gesture)
}

func getIntroText() string {
	line1 := "Hit [#ff0000]F1[-] to press/release, [#ff0000]F2[-] to click, [#ff0000]F3[-] to double click the button"
	line2 := "Hit [#ff0000]Ctrl-C[-] to exit, [#ff0000]Ctrl-R[-] to reload, [#ff0000]PgUp/PgDn[-] to scroll logs, type [blue]help[-] below"
	return fmt.Sprintf("%s\n%s", line1, line2)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(getIntroText())
	s.intro.SetBorder(true).SetTitle(" GOLIGHT Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Light and Status Panes ---
	s.lightView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.lightView.SetBorder(true).SetTitle(" Light ")
	s.lightView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
	s.lightView.SetText(renderFrame(output.Frame{}))

	s.statusView = tview.NewTextView().
		SetDynamicColors(true)
	s.statusView.SetBorder(true).SetTitle(" Status ")
	s.statusView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
	s.status.mu.Lock()
	s.statusView.SetText(s.status.render())
	s.status.mu.Unlock()

	// --- Console Pane ---
	// only written from the main goroutine, which redraws afterwards
	s.consoleView = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true)
	s.consoleView.SetBorder(true).SetTitle(" Console ").SetTitleColor(tcell.ColorLightBlue)
	s.consoleView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	s.input = tview.NewInputField().
		SetLabel("golight:~$ ").
		SetFieldBackgroundColor(tcell.NewRGBColor(40, 40, 40))
	s.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := s.input.GetText()
		s.input.SetText("")
		fmt.Fprintf(s.consoleView, "> %s\n", line)
		s.consoleView.ScrollToEnd()
		// the console waits for the dispatch loop, which must not wait for us
		go func() {
			reply := s.console(line)
			s.tviewapp.QueueUpdateDraw(func() {
				fmt.Fprint(s.consoleView, reply)
				s.consoleView.ScrollToEnd()
			})
		}()
	})

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	middle := tview.NewFlex().
		AddItem(s.lightView, 0, 1, false).
		AddItem(s.statusView, 0, 2, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 4, 0, false).
		AddItem(middle, 8, 0, false).
		AddItem(s.consoleView, 0, 1, false).
		AddItem(s.logView, 0, 1, false).
		AddItem(s.input, 1, 0, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			if err := logging.Attach(tview.ANSIWriter(s.logView)); err != nil {
				slog.Error("Failed to attach log pane", "error", err)
			}
			close(s.readyChan)
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyCtrlR:
			s.ossignalChan <- syscall.SIGHUP
			return nil
		case tcell.KeyF1:
			go s.edge(!s.ButtonPressed())
			return nil
		case tcell.KeyF2:
			go s.click(1)
			return nil
		case tcell.KeyF3:
			go s.click(2)
			return nil
		case tcell.KeyPgUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyPgDn:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// click presses and releases the simulated button n times. Every level is
// held for twice the debounce delay so it survives debouncing.
func (s *TUIPlatform) click(n int) {
	if s.ButtonPressed() {
		s.edge(false)
		time.Sleep(s.clickStep)
	}
	for i := 0; i < n; i++ {
		s.edge(true)
		time.Sleep(s.clickStep)
		s.edge(false)
		time.Sleep(s.clickStep)
	}
}

// renderFrame draws the color as a swatch and the indicator as a dot.
func renderFrame(f output.Frame) string {
	swatch := frameColor(f)
	ind := indicatorColor(f[output.Indicator])

	var buf bytes.Buffer
	line := "[" + swatch.Hex() + "]" + strings.Repeat("█", 12) + "[-]\n"
	for i := 0; i < 3; i++ {
		buf.WriteString(line)
	}
	fmt.Fprintf(&buf, "[%s]●[-] %4d\n", ind.Hex(), f[output.Indicator])
	fmt.Fprintf(&buf, "R%4d G%4d B%4d", f[output.Red], f[output.Green], f[output.Blue])
	return buf.String()
}

// frameColor maps the permille channels to a terminal color. Dark colors
// stay visible as a dim gray instead of black.
func frameColor(f output.Frame) colorful.Color {
	c := colorful.Color{
		R: float64(f[output.Red]) / 1000,
		G: float64(f[output.Green]) / 1000,
		B: float64(f[output.Blue]) / 1000,
	}.Clamped()
	if f[output.Red] == 0 && f[output.Green] == 0 && f[output.Blue] == 0 {
		return colorful.Color{R: 0.1, G: 0.1, B: 0.1}
	}
	return c
}

func indicatorColor(level uint16) colorful.Color {
	off := colorful.Color{R: 0.15, G: 0.15, B: 0.15}
	on := colorful.Color{R: 1, G: 1, B: 0.6}
	return off.BlendRgb(on, float64(min(level, 1000))/1000)
}

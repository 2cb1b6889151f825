package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lautenbacher.net/golight/cli"
	"lautenbacher.net/golight/config"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/logging"
	"lautenbacher.net/golight/platform"
)

// watchDebounce coalesces the writes of an editor saving the config file.
const watchDebounce = 500 * time.Millisecond

// errReported marks errors whose message the command already printed.
var errReported = errors.New("command failed")

type options struct {
	configFile string
	realHW     bool
}

func main() {
	err := newRootCmd().Execute()
	if cerr := logging.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the light in the terminal simulation or on the Raspberry Pi",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLight(opts)
		},
	}
	runCmd.Flags().BoolVar(&opts.realHW, "real", false, "drive the real hardware instead of the TUI simulation")

	root := &cobra.Command{
		Use:           "golight",
		Short:         "Single button RGB light with color presets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", config.CONFILE, "configuration file")
	root.Flags().AddFlagSet(runCmd.Flags())

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Control the light from stdin without any UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	execCmd := &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run a single console command against the stored state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, cmd.OutOrStdout(), args)
		},
	}

	root.AddCommand(runCmd, consoleCmd, execCmd)
	return root
}

func logOptions(lc config.LogConfig, buffer bool) logging.Options {
	return logging.Options{Level: lc.Level, Format: lc.Format, File: lc.File, Buffer: buffer}
}

// runLight runs until interrupted. SIGHUP, Ctrl-R and changes of the config
// file rebuild everything from the re-read configuration.
func runLight(opts *options) error {
	conf, err := config.ReadConfig(opts.configFile)
	if err != nil {
		return err
	}

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ossignal)

	for {
		reload, err := runOnce(conf, opts, ossignal)
		if err != nil || !reload {
			return err
		}
		next, err := config.ReadConfig(opts.configFile)
		if err != nil {
			slog.Error("Keeping previous configuration", "error", err)
			continue
		}
		conf = next
		slog.Info("Configuration reloaded", "file", opts.configFile)
	}
}

func runOnce(conf *config.Config, opts *options, ossignal chan os.Signal) (bool, error) {
	logConf := conf.Logging.TUI
	if opts.realHW {
		logConf = conf.Logging.HW
	}
	if err := logging.Setup(logOptions(logConf, !opts.realHW)); err != nil {
		return false, fmt.Errorf("failed to set up logging: %w", err)
	}

	bus := events.New()
	defer bus.LogAll()()

	var app *App
	var plat platform.Platform
	if opts.realHW {
		plat = platform.NewRaspberryPiPlatform(conf)
	} else {
		tui := platform.NewTUIPlatform(conf, ossignal, func(line string) string {
			var buf bytes.Buffer
			_ = app.Exec(context.Background(), &buf, line)
			return buf.String()
		})
		tui.Observe(bus)
		plat = tui
	}

	var err error
	app, err = NewApp(conf, plat, bus)
	if err != nil {
		return false, err
	}
	if err := plat.Start(); err != nil {
		return false, fmt.Errorf("failed to start platform: %w", err)
	}
	defer plat.Stop()

	app.Start(context.Background())
	defer app.Stop()

	watcher := config.NewWatcher(opts.configFile, watchDebounce, func() {
		select {
		case ossignal <- syscall.SIGHUP:
		default:
		}
	})
	if err := watcher.Start(); err != nil {
		slog.Warn("Config file is not watched", "error", err)
	}
	defer watcher.Stop()

	for sig := range ossignal {
		switch sig {
		case syscall.SIGHUP:
			slog.Info("Reloading...")
			return true, nil
		default:
			slog.Info("Exiting...", "signal", sig)
			return false, nil
		}
	}
	return false, nil
}

// startHeadless builds the light without UI for console and exec.
func startHeadless(ctx context.Context, opts *options) (*App, func(), error) {
	conf, err := config.ReadConfig(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := logging.Setup(logOptions(conf.Logging.HW, false)); err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	bus := events.New()
	stopLog := bus.LogAll()
	plat := platform.NewHeadlessPlatform()
	app, err := NewApp(conf, plat, bus)
	if err != nil {
		stopLog()
		return nil, nil, err
	}
	if err := plat.Start(); err != nil {
		stopLog()
		return nil, nil, err
	}
	app.Start(ctx)
	return app, func() {
		app.Stop()
		plat.Stop()
		stopLog()
	}, nil
}

func runConsole(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, shutdown, err := startHeadless(ctx, opts)
	if err != nil {
		return err
	}
	defer shutdown()

	err = cli.Console(ctx, in, out, cli.Prompt, app.Exec)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runExec(ctx context.Context, opts *options, out io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, shutdown, err := startHeadless(ctx, opts)
	if err != nil {
		return err
	}
	defer shutdown()

	if err := app.Exec(ctx, out, joinArgs(args)); err != nil {
		return fmt.Errorf("%w: %v", errReported, err)
	}
	return nil
}

// joinArgs quotes args again so that the console tokenizer splits the line
// into the same words.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && !strings.ContainsAny(a, " \t\n\"'\\") {
			quoted[i] = a
			continue
		}
		quoted[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a) + `"`
	}
	return strings.Join(quoted, " ")
}

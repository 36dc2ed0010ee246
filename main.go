package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rezmoss/polytimer/pkg/config"
	"github.com/rezmoss/polytimer/pkg/notify"
	"github.com/rezmoss/polytimer/pkg/state"
	"github.com/rezmoss/polytimer/pkg/timer"
)

var commands = []struct{ name, args, help string }{
	{"new", "<minutes>", "Create a new timer if none exists."},
	{"cancel", "", "Cancel the current timer if it exists."},
	{"increase", "[seconds]", "Increase the current timer or create a new one."},
	{"toggle", "", "Play or pause the current timer if it exists."},
	{"tail", "[-r ICON] [-p ICON]", "Print the remaining time until the timer ends."},
	{"status", "[-r ICON] [-p ICON]", "Print the remaining time once."},
	{"dashboard", "", "Show an interactive view of the timer."},
	{"config", "[--write]", "Print the effective configuration."},
}

type usageError struct{ error }

type app struct {
	cfg        *config.Config
	configPath string
	store      *state.FileStore
	stdout     io.Writer
	stderr     io.Writer
	logger     *log.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("polytimer", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to the YAML config file")
	stateDir := global.String("state-dir", "", "directory holding the timer state")
	silent := global.Bool("silent", false, "do not play a sound when the timer runs out")
	global.Usage = func() { printUsage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "load config:", err)
		return 1
	}
	if *stateDir != "" {
		cfg.StateDir = *stateDir
	}
	if *silent {
		cfg.Silent = true
	}

	logger := log.New(stderr, "polytimer: ", 0)
	store := state.NewFileStore(cfg.StateDir)
	store.Logger = logger
	a := &app{
		cfg:        cfg,
		configPath: *configPath,
		store:      store,
		stdout:     stdout,
		stderr:     stderr,
		logger:     logger,
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "new":
		err = a.cmdNew(rest)
	case "cancel":
		err = a.cmdCancel(rest)
	case "increase":
		err = a.cmdIncrease(rest)
	case "toggle":
		err = a.cmdToggle(rest)
	case "tail":
		err = a.cmdTail(rest)
	case "status":
		err = a.cmdStatus(rest)
	case "dashboard":
		err = a.cmdDashboard(rest)
	case "config":
		err = a.cmdConfig(rest)
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n\n", cmd)
		global.Usage()
		return 1
	}
	return a.exitCode(err)
}

func (a *app) exitCode(err error) int {
	var uerr usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &uerr):
		fmt.Fprintln(a.stderr, uerr.Error())
		return 2
	case errors.Is(err, state.ErrPermission):
		a.logger.Printf("%v", err)
		fmt.Fprintf(a.stderr, "Insufficient permissions! Try manually deleting %s and creating a new timer.\n", a.cfg.StateDir)
		return 1
	default:
		a.logger.Printf("%v", err)
		return 1
	}
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, titleStyle.Render("polytimer"), "keeps a single countdown timer for a status bar.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: polytimer [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %-20s %s\n", c.name, c.args, c.help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, global.FlagUsages())
}

func (a *app) controller(opts ...timer.Option) *timer.Controller {
	opts = append([]timer.Option{
		timer.WithLogger(a.logger),
		timer.WithInterval(a.cfg.PollInterval),
	}, opts...)
	return timer.New(a.store, opts...)
}

var quiet = timer.NotifierFunc(func(context.Context) error { return nil })

// notifier plays the configured sound, falling back to fallback when there
// is no sound or it cannot be played. A nil fallback is silence.
func (a *app) notifier(fallback timer.Notifier) timer.Notifier {
	if fallback == nil {
		fallback = quiet
	}
	if a.cfg.Silent {
		return quiet
	}
	if a.cfg.Sound == "" {
		return fallback
	}
	if _, err := os.Stat(a.cfg.Sound); err != nil {
		a.logger.Printf("no notification sound: %v", err)
		return fallback
	}
	return notify.FirstOf(notify.NewPlayer(a.cfg.Sound, a.cfg.Volume), fallback)
}

func (a *app) subcommand(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseCount(arg, what string) (uint64, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, usageError{fmt.Errorf("invalid %s %q: expected a non-negative whole number", what, arg)}
	}
	return n, nil
}

func parseArgs(fs *flag.FlagSet, args []string, lo, hi int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	if n := fs.NArg(); n < lo || n > hi {
		return usageError{fmt.Errorf("%s: expected between %d and %d arguments, got %d", fs.Name(), lo, hi, n)}
	}
	return nil
}

func (a *app) cmdNew(args []string) error {
	fs := a.subcommand("new")
	if err := parseArgs(fs, args, 1, 1); err != nil {
		return err
	}
	minutes, err := parseCount(fs.Arg(0), "minutes")
	if err != nil {
		return err
	}
	_, err = a.controller().New(timer.Duration(minutes, time.Minute))
	return err
}

func (a *app) cmdCancel(args []string) error {
	if err := parseArgs(a.subcommand("cancel"), args, 0, 0); err != nil {
		return err
	}
	return a.controller().Cancel()
}

func (a *app) cmdIncrease(args []string) error {
	fs := a.subcommand("increase")
	if err := parseArgs(fs, args, 0, 1); err != nil {
		return err
	}
	step := a.cfg.IncreaseStep
	if fs.NArg() == 1 {
		seconds, err := parseCount(fs.Arg(0), "seconds")
		if err != nil {
			return err
		}
		step = timer.Duration(seconds, time.Second)
	}
	return a.controller().Increase(step)
}

func (a *app) cmdToggle(args []string) error {
	if err := parseArgs(a.subcommand("toggle"), args, 0, 0); err != nil {
		return err
	}
	return a.controller().Toggle()
}

func (a *app) iconFlags(fs *flag.FlagSet) *timer.Icons {
	icons := &timer.Icons{}
	fs.StringVarP(&icons.Play, "play-icon", "r", a.cfg.PlayIcon, "the icon to display when the timer is running")
	fs.StringVarP(&icons.Pause, "pause-icon", "p", a.cfg.PauseIcon, "the icon to display when the timer is paused")
	return icons
}

func (a *app) cmdTail(args []string) error {
	fs := a.subcommand("tail")
	icons := a.iconFlags(fs)
	if err := parseArgs(fs, args, 0, 0); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := timer.NewDisplay(a.stdout, isTerminal(a.stdout))
	return a.controller(timer.WithNotifier(a.notifier(nil))).Tail(ctx, display, *icons)
}

// cmdStatus prints a single reading, for status bars that run the command
// on an interval instead of tailing it. A timer found run out is expired
// here just as tail would.
func (a *app) cmdStatus(args []string) error {
	fs := a.subcommand("status")
	icons := a.iconFlags(fs)
	if err := parseArgs(fs, args, 0, 0); err != nil {
		return err
	}

	ctl := a.controller(timer.WithNotifier(a.notifier(nil)))
	r, err := ctl.Poll()
	if err != nil {
		return err
	}
	if !r.Active {
		fmt.Fprintln(a.stdout)
		return nil
	}
	fmt.Fprintln(a.stdout, r.Label(*icons))
	if r.Done() {
		return ctl.Expire(context.Background())
	}
	return nil
}

func (a *app) cmdConfig(args []string) error {
	fs := a.subcommand("config")
	write := fs.Bool("write", false, "save the effective configuration to the config file")
	if err := parseArgs(fs, args, 0, 0); err != nil {
		return err
	}

	if *write {
		path := a.configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.Save(path, a.cfg); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Config written to", path)
		return nil
	}

	enc := yaml.NewEncoder(a.stdout)
	defer enc.Close()
	return enc.Encode(a.cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

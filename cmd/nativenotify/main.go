package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/nativenotify/internal/config"
	"github.com/example/nativenotify/internal/logging"
	"github.com/example/nativenotify/internal/notify"
	"github.com/example/nativenotify/internal/platform"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

// openBackend is replaced in tests.
var openBackend = platform.Open

type runnable interface{ Run() error }

type root struct {
	fs         *flag.FlagSet
	program    string
	config     *config.Config
	configPath string
	logLevel   string
	backend    string
	stdout     io.Writer
	stderr     io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:    program,
		config:     r.config,
		configPath: r.configPath,
		logLevel:   r.logLevel,
		backend:    r.backend,
		stdout:     r.stdout,
		stderr:     r.stderr,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("nativenotify", flag.ContinueOnError),
		program: "nativenotify",
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	r.fs.SetOutput(io.Discard)
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "read configuration from this file")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	r.fs.StringVar(&r.backend, "backend", "", "backend: auto, native or terminal")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) loader() *config.Loader {
	return config.NewLoader(version, r.configPath)
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: r}
		}
		return fmt.Errorf("%w: %w", errInvalid, err)
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	// Precedence: CLI > Env > Config > Default
	cfg, err := r.loader().Load()
	if err != nil {
		return fmt.Errorf("%w: config: %w", errInvalid, err)
	}
	if r.logLevel != "" {
		cfg.Log.Level = r.logLevel
	}
	if r.backend != "" {
		cfg.Backend = r.backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalid, err)
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Configure(level, cfg.Log.Pretty)
	r.config = cfg

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "send":
		cmd, err = parseSendCmd(subArgs, r)
	case "close":
		cmd, err = parseCloseCmd(subArgs, r)
	case "capabilities":
		cmd, err = parseCapabilitiesCmd(subArgs, r)
	case "status":
		cmd, err = parseStatusCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r.subcommand("version")}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// openNotifier selects the backend from the loaded configuration.
func (r *root) openNotifier() (*notify.Notifier, error) {
	cfg := r.config
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalid, err)
	}
	log := logging.Component("notify")
	backend := openBackend(platform.Options{
		Backend: cfg.Backend,
		Log:     log,
		Out:     r.stderr,
		Linux:   platform.LinuxOptions{BusAddress: cfg.Linux.BusAddress},
		Windows: platform.WindowsOptions{
			AppID:        cfg.Windows.AppID,
			ShortcutName: cfg.Windows.ShortcutName,
			Interpreter:  cfg.Windows.Interpreter,
		},
		Darwin: platform.DarwinOptions{CallbackWait: cfg.Darwin.CallbackWait},
	})
	return notify.New(backend, notify.Defaults{
		AppName:  cfg.AppName,
		Icon:     notify.ParseIcon(cfg.Icon),
		Category: cfg.Category,
		Timeout:  timeout,
	}, log), nil
}

func main() {
	r := newRoot()
	err := r.Run(os.Args[1:])
	if err == nil {
		return
	}
	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
	}
	os.Exit(exitCode(err))
}

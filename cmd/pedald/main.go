// Package main is the entry point for the pedald daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/pedald/internal/app"
	"github.com/dshills/pedald/internal/device"
	"github.com/dshills/pedald/internal/logging"
	"github.com/dshills/pedald/internal/service"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, cmd := parseFlags()

	switch cmd {
	case cmdListDevices:
		return listDevices()
	case cmdInstall, cmdUninstall:
		return manageService(cmd, opts)
	}

	application, err := app.New(opts.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type command int

const (
	cmdRun command = iota
	cmdListDevices
	cmdInstall
	cmdUninstall
)

type options struct {
	app.Options
	system bool
}

func parseFlags() (options, command) {
	var opts options
	var listDevs, install, uninstall bool
	var showVersion, showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Log actions instead of injecting them")
	flag.StringVar(&opts.Listen, "listen", "", "Companion endpoint address (\"off\" to disable)")
	flag.BoolVar(&listDevs, "list-devices", false, "List HID and input devices, then exit")
	flag.BoolVar(&install, "install-service", false, "Install and start the systemd unit")
	flag.BoolVar(&uninstall, "uninstall-service", false, "Stop and remove the systemd unit")
	flag.BoolVar(&opts.system, "system", false, "Manage the system-wide unit instead of the user unit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pedald - foot pedal action daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pedald [options] [run]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pedald                      Run with the default config\n")
		fmt.Fprintf(os.Stderr, "  pedald -dry-run             Log actions without injecting\n")
		fmt.Fprintf(os.Stderr, "  pedald -list-devices        Show attached devices\n")
		fmt.Fprintf(os.Stderr, "  pedald -install-service     Install the user systemd unit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("pedald %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	// The systemd unit invokes "pedald run"; the bare word is accepted
	// and means the default mode.
	if args := flag.Args(); len(args) > 0 && args[0] != "run" {
		fmt.Fprintf(os.Stderr, "Error: unknown argument %q\n", args[0])
		os.Exit(1)
	}

	opts.Version = version

	switch {
	case listDevs:
		return opts, cmdListDevices
	case install:
		return opts, cmdInstall
	case uninstall:
		return opts, cmdUninstall
	default:
		return opts, cmdRun
	}
}

func listDevices() int {
	code := 0

	fmt.Println("HID devices:")
	if infos, err := device.ListHID(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		code = 1
	} else {
		for _, info := range infos {
			fmt.Printf("  %04x:%04x %s %s (%s)\n", info.VendorID, info.ProductID, info.Mfr, info.Product, info.Path)
		}
	}

	fmt.Println("Input devices:")
	if infos, err := device.ListEvdev(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		code = 1
	} else {
		for _, info := range infos {
			fmt.Printf("  %s (%s)\n", info.Product, info.Path)
		}
	}

	return code
}

func manageService(cmd command, opts options) int {
	logCfg := logging.DefaultConfig()
	mgr := service.NewManager(logging.New(logCfg))

	var err error
	if cmd == cmdInstall {
		err = mgr.Install(opts.system)
	} else {
		err = mgr.Uninstall(opts.system)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

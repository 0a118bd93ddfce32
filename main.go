package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/NamanBalaji/urlconf/internal/config"
	"github.com/NamanBalaji/urlconf/internal/fetch"
	"github.com/NamanBalaji/urlconf/internal/logger"
	"github.com/NamanBalaji/urlconf/internal/repository"
	"github.com/NamanBalaji/urlconf/internal/vfs"
	"github.com/NamanBalaji/urlconf/pkg/transport"
	"github.com/NamanBalaji/urlconf/pkg/transport/engine"
)

var errUsage = errors.New("usage error")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// app carries what every command needs.
type app struct {
	cfg     *config.Config
	stdout  io.Writer
	journal *repository.BboltRepository
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		debug      bool
		trace      bool
		noJournal  bool
		logPath    string
		configPath string
	)

	flagSet := pflag.NewFlagSet("urlconf", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.BoolVar(&debug, "debug", false, "enable debug logging")
	flagSet.BoolVar(&trace, "trace", false, "enable the conf_url trace channel on stderr")
	flagSet.BoolVar(&noJournal, "no-journal", false, "do not record fetches in the journal")
	flagSet.StringVar(&logPath, "log", filepath.Join(xdg.StateHome, "urlconf", "urlconf.log"), "debug log file")
	flagSet.StringVar(&configPath, "config", config.Path(), "configuration file")
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(flagSet)
		return fmt.Errorf("%w: missing command", errUsage)
	}

	if err := logger.InitLogging(debug, logPath); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	if trace {
		logger.EnableTracing()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration %s: %w", configPath, err)
	}

	a := &app{cfg: cfg, stdout: stdout}

	command, cmdArgs := rest[0], rest[1:]

	if command != "parse" && !noJournal && !cfg.Journal.Disabled {
		repo, err := repository.NewBboltRepository(cfg.Journal.Path)
		if err != nil {
			logger.Warnf("Journal unavailable, continuing without it: %v", err)
		} else {
			a.journal = repo
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Warnf("Failed to close journal: %v", err)
				}
			}()
		}
	}

	switch command {
	case "cat":
		return a.cat(ctx, cmdArgs)
	case "stat":
		return a.stat(ctx, cmdArgs)
	case "parse":
		return a.parse(cmdArgs)
	case "check":
		return a.check(ctx, cmdArgs)
	case "history":
		return a.history(cmdArgs)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

// newFetcher builds a fetcher on a private engine. The returned function
// releases the engine's pooled connections.
func (a *app) newFetcher() (*fetch.Fetcher, func(), error) {
	eng, err := engine.New(nil, a.cfg.EngineOptions()...)
	if err != nil {
		return nil, nil, err
	}

	opts := []fetch.Option{fetch.WithOptions(a.cfg.TransportOptions())}
	if a.journal != nil {
		opts = append(opts, fetch.WithJournal(a.journal))
	}

	return fetch.NewFetcher(eng, opts...), eng.Shared().Close, nil
}

func (a *app) newHooks() (*vfs.Hooks, func(), error) {
	f, release, err := a.newFetcher()
	if err != nil {
		return nil, nil, err
	}

	var opts []vfs.Option
	if a.cfg.DisableTLS {
		opts = append(opts, vfs.WithoutTLS())
	}

	return vfs.New(f, opts...), release, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `urlconf fetches configuration files from http, https, ftp, ftps and file URLs.

Two query parameters are consumed locally and never sent:
  tracing=on      enable the conf_url trace channel for the rest of the run
  ssl_verify=off  skip certificate verification for this URL

Usage:
  urlconf [flags] <command> [command flags] [args]

Commands:
  cat [--retries N] URL...   print the body of each URL
  stat [--open] URL...       show the synthetic file information
  parse URL...               show how a URL is decomposed
  check [--parallel N] URL...  fetch URLs concurrently and report the outcome
  history [--limit N] [--clear]  list journalled fetches

User-Agent: %s

Flags:
%s`, transport.DefaultUserAgent, flagSet.FlagUsages())
}

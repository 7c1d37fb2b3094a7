package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"devopsmon/internal/config"
	"devopsmon/internal/logger"
	"devopsmon/internal/logs"
	"devopsmon/internal/logtail"
	"devopsmon/internal/mcpserver"
	"devopsmon/internal/output"
	"devopsmon/internal/settings"
	"devopsmon/ui/console"
	"devopsmon/ui/tui"
)

const version = "0.3.0"

const usage = `Usage: devopsmon <command> [flags]

Commands:
  serve      run the scheduled samplers, alerting, log collection and retention
  mcp        serve the operator tools over MCP on stdio
  tui        open the terminal dashboard
  report     sample once and print the health dashboard
  tail       print the last lines of a file or log group
  search     search log files for a term
  exec       run an allow-listed diagnostic command
  settings   show or replace the monitor settings
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch name {
	case "serve":
		err = runServe(ctx, cfg)
	case "mcp":
		err = runMCP(ctx, cfg)
	case "tui":
		err = runTUI(ctx, cfg)
	case "report":
		err = runReport(ctx, cfg, args)
	case "tail":
		err = runTail(ctx, cfg, args)
	case "search":
		err = runSearch(ctx, cfg, args)
	case "exec":
		err = runExec(ctx, cfg, args)
	case "settings":
		err = runSettings(ctx, cfg, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// stderrLogger keeps stdout for command output.
func stderrLogger(cfg config.Config) *slog.Logger {
	return logger.NewWithWriter(os.Stderr, "devopsmon", logger.ParseLevel(cfg.LogLevel))
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logger.New("devopsmon", logger.ParseLevel(cfg.LogLevel))
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	worker, err := a.worker()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.telemetry.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		if err := worker.Start(gctx); err != nil {
			return err
		}
		log.Info("monitor started", "site", cfg.Site, "env", cfg.Environment)
		<-gctx.Done()
		worker.Stop()
		log.Info("monitor stopped")
		return nil
	})
	return g.Wait()
}

func runMCP(ctx context.Context, cfg config.Config) error {
	// stdout carries the protocol.
	log := logger.NewWithWriter(os.Stderr, "devopsmon-mcp", logger.ParseLevel(cfg.LogLevel))
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := mcpserver.Deps{
		Snapshots: a.sampler,
		Inventory: a.source,
		Store:     a.repo,
		Logs:      a.logs,
		Alerts:    a.evaluator,
		Commands:  a.commands,
		Settings:  a.provider,
		Database:  a.appDB,
	}
	srv, err := mcpserver.NewServer(mcpserver.Config{ServerName: "devopsmon", ServerVersion: version}, deps, log)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func runTUI(ctx context.Context, cfg config.Config) error {
	a, err := newApp(ctx, cfg, logger.Discard())
	if err != nil {
		return err
	}
	defer a.Close()
	return tui.Start(tui.Deps{Snapshots: a.sampler, Store: a.repo, Settings: a.provider})
}

func runReport(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	stored := fs.Bool("stored", false, "print stored values without sampling first")
	asJSON := fs.Bool("json", false, "print the dashboard as JSON")
	fs.Parse(args)

	a, err := newApp(ctx, cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	if !*stored {
		if _, err := a.sampler.Collect(ctx); err != nil {
			return err
		}
		if a.dbSampler != nil {
			if _, err := a.dbSampler.Collect(ctx); err != nil {
				return err
			}
		}
	}
	s, err := a.provider.Get(ctx)
	if err != nil {
		return err
	}
	latest, err := a.repo.LatestByType(ctx, 1000)
	if err != nil {
		return err
	}
	view := output.BuildDashboard(latest, s)
	if *asJSON {
		return writeJSON(os.Stdout, view)
	}
	console.Print(os.Stdout, view)
	return nil
}

func runTail(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("tail", flag.ExitOnError)
	n := fs.Int("n", 100, "number of lines")
	group := fs.String("group", "", "log group instead of a file: "+strings.Join(logs.GroupNames(), ", "))
	fs.Parse(args)

	if *group == "" {
		if fs.NArg() != 1 {
			return errors.New("usage: devopsmon tail [-n lines] <path> | -group <name>")
		}
		path := logs.ExpandHome(fs.Arg(0))
		lines, err := logtail.TailExact(path, *n)
		if err != nil {
			return err
		}
		now := time.Now()
		entries := make([]logtail.Entry, 0, len(lines))
		for _, line := range lines {
			entries = append(entries, logtail.Parse(line, path, now))
		}
		console.PrintEntries(os.Stdout, entries)
		return nil
	}

	a, err := newApp(ctx, cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	entries, err := a.logs.Collect(ctx, *group, *n)
	if err != nil {
		return err
	}
	console.PrintEntries(os.Stdout, entries)
	return nil
}

func runSearch(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	group := fs.String("group", "", "search the files of a log group")
	maxMatches := fs.Int("max", 100, "stop after this many matches")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return errors.New("usage: devopsmon search [-group name] [-max n] <term> [paths...]")
	}
	term, paths := fs.Arg(0), fs.Args()[1:]

	a, err := newApp(ctx, cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	if *group != "" {
		gp, err := a.logs.GroupPaths(ctx, *group)
		if err != nil {
			return err
		}
		paths = append(paths, gp...)
	}
	if len(paths) == 0 {
		return errors.New("give a -group or at least one path")
	}
	matches, err := a.logs.Search(ctx, paths, term, *maxMatches)
	if err != nil {
		return err
	}
	console.PrintMatches(os.Stdout, matches)
	return nil
}

func runExec(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: devopsmon exec <command> [args...]")
	}
	a, err := newApp(ctx, cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.commands.Run(ctx, strings.Join(args, " "))
	fmt.Print(res.Output)
	if !res.Success {
		if res.Error != "" {
			fmt.Fprintln(os.Stderr, res.Error)
		}
		if err == nil {
			err = errors.New("command failed")
		}
		return err
	}
	return nil
}

func runSettings(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	file := fs.String("set", "", "replace the settings with this JSON document (- for stdin)")
	fs.Parse(args)

	a, err := newApp(ctx, cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	if *file != "" {
		var r io.Reader = os.Stdin
		if *file != "-" {
			f, err := os.Open(*file)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		var next settings.Settings
		if err := json.NewDecoder(r).Decode(&next); err != nil {
			return fmt.Errorf("decode settings: %w", err)
		}
		if err := a.provider.Put(ctx, next); err != nil {
			return err
		}
	}

	s, err := a.provider.Get(ctx)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

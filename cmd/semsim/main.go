// Package main is the semsim CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/semsim/internal/cli"
	"github.com/hyperjump/semsim/internal/client"
	"github.com/hyperjump/semsim/internal/config"
	"github.com/hyperjump/semsim/internal/controller"
	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/outcome"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/server"
	"github.com/hyperjump/semsim/internal/storage"
	"github.com/hyperjump/semsim/internal/watcher"
	"github.com/hyperjump/semsim/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/semsim/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file falls back
// to built-in defaults. Returns the config and the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		cfg, err = config.Default()
		return cfg, "", err
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; SEMSIM_* variables may come from the shell.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	args := os.Args[2:]
	var code int
	switch command := os.Args[1]; command {
	case "server":
		code = runServer(args)
	case "samples":
		code = runSamples(args, os.Stdout)
	case "submit":
		code = runSubmit(args, os.Stdout)
	case "results":
		code = runResults(args, os.Stdout)
	case "history":
		code = runHistory(args, os.Stdout)
	case "export":
		code = runExport(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("semsim version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		code = 1
	}
	os.Exit(code)
}

// commonFlags are shared by every subcommand that talks to the API.
type commonFlags struct {
	configPath *string
	debug      *bool
	apiURL     *string
	output     *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		apiURL:     fs.String("api", "", "similarity API base URL (overrides config)"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
	}
}

// argsReorder moves flags (and their values) that appear after positional
// arguments to the front, so "semsim samples small --output json" parses.
func argsReorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !looksLikeFlag(a) {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if !strings.Contains(a, "=") && i+1 < len(args) && !looksLikeFlag(args[i+1]) && !isBoolFlag(a) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return append(flags, positional...)
}

// looksLikeFlag reports whether a is a flag rather than a value such as "-0.5".
func looksLikeFlag(a string) bool {
	if !strings.HasPrefix(a, "-") || a == "-" {
		return false
	}
	_, err := strconv.ParseFloat(a, 64)
	return err != nil
}

func isBoolFlag(a string) bool {
	switch strings.TrimLeft(a, "-") {
	case "debug", "wait":
		return true
	}
	return false
}

// app holds the components a command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	api     *client.Client
	library *samples.Library
	history storage.Storage
	ctrl    *controller.Controller
}

func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	_ = a.logger.Sync()
}

// newApp loads config and wires the components. Command loggers stay quiet
// unless debug is on; the server logs at info.
func newApp(flags commonFlags, serverMode bool) (*app, error) {
	cfg, resolved, err := loadConfig(*flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if *flags.apiURL != "" {
		cfg.API.BaseURL = *flags.apiURL
	}
	debugMode := cfg.Debug || *flags.debug
	newLogger := utils.NewCommandLogger
	if serverMode {
		newLogger = utils.NewLogger
	}
	logger, err := newLogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("debug", debugMode),
	)

	api, err := client.New(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout), client.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	library := samples.NewLibrary(samples.WithDirectory(cfg.Samples.Directory), samples.WithLogger(logger))

	a := &app{cfg: cfg, logger: logger, api: api, library: library}
	opts := []controller.Option{
		controller.WithLogger(logger),
		controller.WithContainerHeight(cfg.Visualization.ContainerHeight),
		controller.WithDefaults(models.SubmitRequest{
			Elements:  cfg.API.DefaultElements,
			Threshold: cfg.API.DefaultThreshold,
		}),
	}
	if history, err := storage.NewSQLiteStorage(cfg.Storage.HistoryPath); err != nil {
		logger.Warn("run history disabled", zap.String("path", cfg.Storage.HistoryPath), zap.Error(err))
	} else {
		a.history = history
		opts = append(opts, controller.WithHistory(history))
	}
	a.ctrl = controller.New(api, library, opts...)
	return a, nil
}

func (a *app) pollOptions(progress io.Writer) client.PollOptions {
	return client.PollOptions{
		Interval:    a.cfg.API.PollInterval,
		MaxAttempts: a.cfg.API.PollAttempts,
		OnAttempt: func(attempt int, resp *client.Response) {
			if resp.Accepted() && progress != nil {
				fmt.Fprintf(progress, "waiting for results (attempt %d/%d)\n", attempt, a.cfg.API.PollAttempts)
			}
		},
	}
}

// resumeSession installs the session to fetch results for: explicit, or the
// latest one recorded in history.
func (a *app) resumeSession(ctx context.Context, explicit string) {
	if explicit != "" {
		a.api.SetSession(explicit)
		return
	}
	if a.history == nil {
		return
	}
	id, err := a.history.LatestSessionID(ctx)
	if err != nil {
		a.logger.Warn("failed to look up latest session", zap.Error(err))
		return
	}
	a.api.SetSession(id)
}

func runServer(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(flags, true)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer a.Close()
	logger := a.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.library.Preload(ctx); err != nil {
		logger.Warn("sample preload failed", zap.Error(err))
	}

	if dir := a.cfg.Samples.Directory; dir != "" && a.cfg.Samples.WatchOrDefault() {
		w := watcher.New(dir, []string{".xml"}, a.library.Reload, a.library.Forget, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Error("failed to watch samples directory", zap.String("dir", dir), zap.Error(err))
		} else {
			defer w.Stop()
			// Pick up files changed between preload and the watch starting.
			if err := w.SyncExisting(); err != nil {
				logger.Warn("samples directory sync failed", zap.String("dir", dir), zap.Error(err))
			}
			logger.Info("watching samples directory", zap.String("dir", dir))
		}
	}

	srv := server.NewServer(a.ctrl, a.library, a.history, a.cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return 1
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	return 0
}

func runSamples(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("samples", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := fs.Parse(argsReorder(args)); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	a, err := newApp(flags, false)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer a.Close()
	ctx := context.Background()

	if name := fs.Arg(0); name != "" {
		s, err := a.library.Get(ctx, name)
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		_, _ = io.WriteString(stdout, s.XML)
		return 0
	}

	if err := a.library.Preload(ctx); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	if err := cli.WriteSamples(stdout, a.library.List(), format); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	return 0
}

func runSubmit(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	sample := fs.String("sample", "small", "built-in sample to submit: small, medium, or large")
	file := fs.String("file", "", "XML file to submit instead of a sample")
	elements := fs.String("elements", "", "space separated element names (default from config)")
	threshold := fs.Float64("threshold", 0, "similarity threshold between 0.0 and 1.0 (default from config)")
	wait := fs.Bool("wait", false, "poll for results after submitting")
	rows := fs.Int("rows", 0, "chart height in terminal rows (default from config)")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	a, err := newApp(flags, false)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer a.Close()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(stdout, "Failed to read %s: %v\n", *file, err)
			return 1
		}
		a.ctrl.SetXML(filepath.Base(*file), string(data))
	} else if _, err := a.ctrl.LoadSample(ctx, *sample); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}

	req := models.SubmitRequest{Elements: a.cfg.API.DefaultElements, Threshold: a.cfg.API.DefaultThreshold}
	if isSet(fs, "elements") {
		req.Elements = *elements
	}
	if isSet(fs, "threshold") {
		req.Threshold = *threshold
	}

	res := a.ctrl.Submit(ctx, req)
	if err := cli.WriteStatus(stdout, "POST", res.Status, format); err != nil {
		return 1
	}
	if res.Status.IsError() {
		return 1
	}
	if !*wait {
		return 0
	}
	return a.writeResults(stdout, a.ctrl.AwaitResults(ctx, a.pollOptions(progressWriter(format))), format, *rows)
}

// isSet reports whether the named flag was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// progressWriter returns where poll progress goes: stderr for text output, nowhere otherwise.
func progressWriter(format cli.OutputFormat) io.Writer {
	if format == cli.OutputText {
		return os.Stderr
	}
	return nil
}

func runResults(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	session := fs.String("session", "", "session ID (default: latest session in history)")
	wait := fs.Bool("wait", false, "poll while results are still processing")
	rows := fs.Int("rows", 0, "chart height in terminal rows (default from config)")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	a, err := newApp(flags, false)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer a.Close()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.resumeSession(ctx, *session)
	var res controller.Result
	if *wait {
		res = a.ctrl.AwaitResults(ctx, a.pollOptions(progressWriter(format)))
	} else {
		res = a.ctrl.FetchResults(ctx)
	}
	return a.writeResults(stdout, res, format, *rows)
}

func (a *app) writeResults(stdout io.Writer, res controller.Result, format cli.OutputFormat, rows int) int {
	if rows <= 0 {
		rows = a.cfg.Visualization.TerminalRows
	}
	if err := cli.WriteResults(stdout, res.Status, res.Visualization, rows, format); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	if res.Status.IsError() || errors.Is(res.Err, client.ErrStillProcessing) {
		return 1
	}
	return 0
}

func runHistory(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "number of runs to show")
	offset := fs.Int("offset", 0, "number of runs to skip")
	prune := fs.Duration("prune", 0, "delete runs older than this duration (e.g. 720h) instead of listing")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(*flags.output)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	a, err := newApp(flags, false)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer a.Close()
	if a.history == nil {
		fmt.Fprintln(stdout, "Run history is not available.")
		return 1
	}
	ctx := context.Background()

	if *prune > 0 {
		n, err := a.history.DeleteRunsBefore(ctx, time.Now().Add(-*prune))
		if err != nil {
			fmt.Fprintf(stdout, "Failed to prune history: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Deleted %d runs.\n", n)
		return 0
	}

	runs, err := a.history.ListRuns(ctx, *offset, *limit)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to list history: %v\n", err)
		return 1
	}
	if err := cli.WriteHistory(stdout, runs, format); err != nil {
		return 1
	}
	return 0
}

func runExport(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	session := fs.String("session", "", "session ID (default: latest session in history)")
	out := fs.String("out", "", "output file; the extension picks the format unless --format is set")
	formatFlag := fs.String("format", "", "export format: xlsx or json")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return 2
	}
	if *out == "" {
		fmt.Fprintln(stdout, "export requires --out")
		return 2
	}
	name := *formatFlag
	if name == "" {
		name = filepath.Ext(*out)
	}
	exportFormat, err := cli.ParseExportFormat(name)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	a, err := newApp(flags, false)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	defer a.Close()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.resumeSession(ctx, *session)
	res := a.ctrl.FetchResults(ctx)
	groups := outcome.GroupsOf(res.Outcome)
	if len(groups) == 0 {
		_ = cli.WriteStatus(stdout, "GET", res.Status, cli.OutputText)
		fmt.Fprintln(stdout, "Nothing to export.")
		return 1
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to create %s: %v\n", *out, err)
		return 1
	}
	if err := cli.ExportGroups(f, groups, exportFormat); err != nil {
		_ = f.Close()
		fmt.Fprintf(stdout, "Export failed: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stdout, "Export failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Exported %d groups to %s\n", len(groups), *out)
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `semsim - XML semantic similarity demo client

Usage:
  semsim server [flags]             Start the demo web server
  semsim samples [flags] [name]     List samples, or print one sample's XML
  semsim submit [flags]             Submit a sample or XML file for processing
  semsim results [flags]            Fetch and visualize the results of a session
  semsim history [flags]            Show or prune the run history
  semsim export --out FILE [flags]  Export result groups to xlsx or json
  semsim version                    Show version
  semsim help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/semsim/config.yaml)
  --api string       Similarity API base URL (overrides config and SEMSIM_API_URL)
  --output string    Output format: text, compact, or json (default: text)
  --debug            Enable debug logging

Submit Flags:
  --sample string      Built-in sample: small, medium, or large (default: small)
  --file string        XML file to submit instead of a sample
  --elements string    Space separated element names (default from config, "p")
  --threshold float    Similarity threshold between 0.0 and 1.0 (default from config, 0.75)
  --wait               Poll for results after submitting
  --rows int           Chart height in terminal rows

Results Flags:
  --session string   Session ID (default: latest session in history)
  --wait             Poll while the API answers 202 Accepted
  --rows int         Chart height in terminal rows

History Flags:
  --limit int        Number of runs to show (default: 20)
  --offset int       Number of runs to skip
  --prune duration   Delete runs older than the duration instead of listing

Export Flags:
  --out string       Output file (required)
  --format string    xlsx or json (default: from the file extension)
  --session string   Session ID (default: latest session in history)

Environment:
  SEMSIM_API_URL, SEMSIM_SAMPLES_DIR, SEMSIM_HISTORY_PATH, SEMSIM_DEBUG, SEMSIM_PORT
  are read from the environment or a .env file in the current directory.

Examples:
  semsim server
  semsim submit --sample medium --elements "p li" --threshold 0.8 --wait
  semsim results --output json
  semsim samples large
  semsim export --out groups.xlsx`)
}

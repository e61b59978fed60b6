package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/todo/internal/adapters/storage/jsonfile"
	"github.com/hylla/todo/internal/adapters/storage/sqlite"
	"github.com/hylla/todo/internal/app"
	"github.com/hylla/todo/internal/config"
	"github.com/hylla/todo/internal/platform"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main. fang has already printed the error when run fails.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(os.Stdin)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	configPath string
	dataPath   string
	storage    string
}

// resolved is the configuration state every command starts from.
type resolved struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
}

// resolve applies flags > env > config file > defaults.
func (o rootOptions) resolve() (resolved, error) {
	paths, err := platform.DefaultPaths()
	if err != nil {
		return resolved{}, err
	}

	configPath := firstNonEmpty(o.configPath, os.Getenv("TODO_CONFIG"), paths.ConfigPath)
	cfg, err := config.Load(configPath, config.Default(paths.DataDir))
	if err != nil {
		return resolved{}, fmt.Errorf("load config %q: %w", configPath, err)
	}

	if raw := firstNonEmpty(o.storage, os.Getenv("TODO_STORAGE")); raw != "" {
		backend, err := config.ParseBackend(raw)
		if err != nil {
			return resolved{}, err
		}
		cfg.Storage.Backend = backend
	}
	if dataPath := firstNonEmpty(o.dataPath, os.Getenv("TODO_DATA_PATH")); dataPath != "" {
		cfg.Storage.Path = dataPath
	}

	return resolved{paths: paths, configPath: configPath, cfg: cfg}, nil
}

// session owns the logger, repository and service for one command invocation.
type session struct {
	resolved
	logger    *runtimeLogger
	svc       *app.Service
	closeRepo func() error
	stderr    io.Writer
}

// openSession resolves configuration, opens storage and loads tasks.
func openSession(ctx context.Context, opts rootOptions, command string, stderr io.Writer) (*session, error) {
	res, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(stderr, platform.AppName, res.cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the file sink while the TUI owns the terminal.
		logger.SetConsoleEnabled(false)
	}
	s := &session{resolved: res, logger: logger, stderr: stderr}

	logger.Info("startup configuration resolved", "command", command, "version", version)
	logger.Debug("runtime paths resolved", "config_path", res.configPath, "data_dir", res.paths.DataDir)
	if logPath := logger.FilePath(); logPath != "" {
		logger.Info("file logging enabled", "path", logPath)
	}
	storagePath := res.cfg.StoragePath()
	logger.Info("configuration loaded", "config_path", res.configPath, "backend", res.cfg.Storage.Backend, "storage_path", storagePath, "log_level", res.cfg.Logging.Level)

	repo, closeRepo, err := openRepository(res.cfg.Storage.Backend, storagePath, logger)
	if err != nil {
		logger.Error("storage open failed", "backend", res.cfg.Storage.Backend, "path", storagePath, "err", err)
		s.Close()
		return nil, err
	}
	s.closeRepo = closeRepo

	s.svc = app.NewService(repo, uuid.NewString, nil)
	if err := s.svc.Load(ctx); err != nil {
		logger.Error("task load failed", "path", storagePath, "err", err)
		s.Close()
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	logger.Debug("application service initialized", "active", len(s.svc.ListTasks(listAll)), "archived", len(s.svc.ListArchived()))
	return s, nil
}

// Close releases the repository and the log file sink.
func (s *session) Close() {
	if s == nil {
		return
	}
	if s.closeRepo != nil {
		if err := s.closeRepo(); err != nil {
			s.logger.Warn("storage close failed", "err", err)
		}
	}
	if err := s.logger.Close(); err != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		_, _ = fmt.Fprintf(s.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// openRepository opens the configured storage backend.
func openRepository(backend config.Backend, path string, logger *runtimeLogger) (app.Repository, func() error, error) {
	switch backend {
	case config.BackendSQLite:
		logger.Info("opening sqlite repository", "db_path", path)
		repo, err := sqlite.Open(path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		return repo, repo.Close, nil
	default:
		logger.Info("opening json repository", "path", path)
		repo, err := jsonfile.New(path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open json repository: %w", err)
		}
		logger.Debug("json repository ready", "path", repo.Path())
		return repo, nil, nil
	}
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// newRootCommand builds the command tree. The root runs the TUI when no subcommand is given.
func newRootCommand(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "todo",
		Short: "A small task tracker for the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, *opts, stderr)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.dataPath, "data", "", "path to the task storage file")
	root.PersistentFlags().StringVar(&opts.storage, "storage", "", "storage backend (json|sqlite)")

	root.AddCommand(
		addCmd(opts, stderr),
		listCmd(opts, stderr),
		doneCmd(opts, stderr),
		deleteCmd(opts, stderr),
		archiveCmd(opts, stderr),
		listArchivedCmd(opts, stderr),
		undoCmd(opts, stderr),
		tuiCmd(opts, stderr),
		exportCmd(opts, stderr),
		importCmd(opts, stderr),
		pathsCmd(opts),
	)
	return root
}

// runtimeLogger fans log events to a styled console sink and an optional file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	filePath       string
}

// newRuntimeLogger configures runtime log sinks from config state.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// File output stays parseable and unstyled.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.filePath = path
	return logger, nil
}

// FilePath returns the active log file path.
func (l *runtimeLogger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the optional file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// logAt writes one event at level to every enabled sink.
func (l *runtimeLogger) logAt(level charmLog.Level, msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			sink.Log(level, msg, keyvals...)
		}
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	l.logAt(charmLog.DebugLevel, msg, keyvals...)
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	l.logAt(charmLog.InfoLevel, msg, keyvals...)
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	l.logAt(charmLog.WarnLevel, msg, keyvals...)
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	l.logAt(charmLog.ErrorLevel, msg, keyvals...)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hylla/todo/internal/app"
	"github.com/hylla/todo/internal/config"
	"github.com/hylla/todo/internal/domain"
	"github.com/hylla/todo/internal/tui"
	"github.com/spf13/cobra"
)

// listAll selects the active list unfiltered and in stored order.
var listAll = domain.ListOptions{}

// withSession opens a session for one command flow and logs its start and outcome.
func withSession(cmd *cobra.Command, opts rootOptions, command string, stderr io.Writer, fn func(context.Context, *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, command, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info("command flow start", "command", command)
	if err := fn(ctx, s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

func addCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		description string
		dueDate     string
		tags        []string
		priority    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Reject bad input before anything is loaded or written.
			due, err := domain.ParseDueDate(dueDate)
			if err != nil {
				return err
			}
			level, err := domain.ParsePriority(priority)
			if err != nil {
				return fmt.Errorf("%w: %q (use low, medium or high)", err, priority)
			}
			in := domain.TaskInput{
				Description: description,
				Tags:        domain.ParseTags(strings.Join(tags, ",")),
				DueDate:     due,
				Priority:    level,
			}
			return withSession(cmd, *opts, "add", stderr, func(ctx context.Context, s *session) error {
				task, err := s.svc.AddTask(ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "D", "", "task description")
	cmd.Flags().StringVarP(&dueDate, "due-date", "d", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "task tags (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "low", "priority (low|medium|high)")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func listCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var view domain.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view.Tags = domain.ParseTags(strings.Join(view.Tags, ","))
			return withSession(cmd, *opts, "list", stderr, func(_ context.Context, s *session) error {
				out := cmd.OutOrStdout()
				now := s.svc.Now()
				_, _ = fmt.Fprintln(out, "Active tasks:")
				for _, task := range s.svc.ListTasks(view) {
					_, _ = fmt.Fprintln(out, formatActiveTask(task, now, s.cfg.Display))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&view.SortByDueDate, "sort-by-due-date", "d", false, "sort by due date")
	cmd.Flags().StringSliceVarP(&view.Tags, "tags", "t", nil, "only tasks carrying every tag")
	cmd.Flags().BoolVarP(&view.SortByPriority, "sort-by-priority", "p", false, "sort by priority")
	return cmd
}

func doneCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var id uint
	cmd := &cobra.Command{
		Use:   "done",
		Short: "Mark a task as done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "done", stderr, func(ctx context.Context, s *session) error {
				err := s.svc.MarkDone(ctx, id)
				return reportByID(cmd.OutOrStdout(), id, err, fmt.Sprintf("Marked task %d as done", id))
			})
		},
	}
	cmd.Flags().UintVarP(&id, "id", "i", 0, "task id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func deleteCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var id uint
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "delete", stderr, func(ctx context.Context, s *session) error {
				_, err := s.svc.DeleteTask(ctx, id)
				return reportByID(cmd.OutOrStdout(), id, err, fmt.Sprintf("Deleted task %d", id))
			})
		},
	}
	cmd.Flags().UintVarP(&id, "id", "i", 0, "task id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// reportByID prints the outcome of an id-addressed mutation. An unknown id is
// reported to the user, not returned as an error.
func reportByID(out io.Writer, id uint, err error, success string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_, _ = fmt.Fprintf(out, "Task with ID %d not found\n", id)
		return nil
	case err != nil:
		return err
	default:
		_, _ = fmt.Fprintln(out, success)
		return nil
	}
}

func archiveCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move completed tasks to the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "archive", stderr, func(ctx context.Context, s *session) error {
				count, err := s.svc.Archive(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived %d tasks\n", count)
				return nil
			})
		},
	}
}

func listArchivedCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-archived",
		Short: "List archived tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "list-archived", stderr, func(_ context.Context, s *session) error {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, "Archived tasks:")
				for _, task := range s.svc.ListArchived() {
					_, _ = fmt.Fprintln(out, formatArchivedTask(task, s.cfg.Display))
				}
				return nil
			})
		},
	}
}

func undoCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent change made in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "undo", stderr, func(ctx context.Context, s *session) error {
				result, err := s.svc.Undo(ctx)
				if errors.Is(err, domain.ErrNothingToUndo) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo!")
					return nil
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Message)
				return nil
			})
		},
	}
}

func tuiCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive task browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, *opts, stderr)
		},
	}
}

// runTUI runs the interactive program loop. A save failure inside the TUI
// ends the program and is returned here.
func runTUI(cmd *cobra.Command, opts rootOptions, stderr io.Writer) error {
	return withSession(cmd, opts, "tui", stderr, func(ctx context.Context, s *session) error {
		m := tui.NewModel(
			ctx,
			s.svc,
			tui.WithKeyConfig(toTUIKeyConfig(s.cfg.Keys)),
			tui.WithDisplayConfig(toTUIDisplayConfig(s.cfg.Display)),
			tui.WithClipboard(clipboard.WriteAll),
		)
		s.logger.Info("starting tui program loop")
		final, err := programFactory(m).Run()
		if err != nil {
			s.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		if out, ok := final.(tui.Model); ok && out.Err() != nil {
			return out.Err()
		}
		return nil
	})
}

func exportCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var (
		outPath         string
		includeArchived bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks as a JSON export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, *opts, "export", stderr, func(_ context.Context, s *session) error {
				encoded, err := json.MarshalIndent(s.svc.Export(includeArchived), "", "  ")
				if err != nil {
					return fmt.Errorf("encode export json: %w", err)
				}
				encoded = append(encoded, '\n')

				if outPath == "-" {
					if _, err := cmd.OutOrStdout().Write(encoded); err != nil {
						return fmt.Errorf("write export to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", true, "include archived tasks")
	return cmd
}

func importCmd(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace tasks with a JSON export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var doc app.Export
			if err := json.Unmarshal(content, &doc); err != nil {
				return fmt.Errorf("decode export json: %w", err)
			}
			return withSession(cmd, *opts, "import", stderr, func(ctx context.Context, s *session) error {
				if err := s.svc.Import(ctx, doc); err != nil {
					return fmt.Errorf("import tasks: %w", err)
				}
				if !doc.HasArchive() {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d active tasks; archive kept (%d tasks)\n", len(doc.Active), len(s.svc.ListArchived()))
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d active and %d archived tasks\n", len(doc.Active), len(doc.Archived))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input export JSON file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func pathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and storage paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.resolve()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "config: %s\n", res.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", res.paths.DataDir)
			_, _ = fmt.Fprintf(out, "storage: %s\n", res.cfg.Storage.Backend)
			_, _ = fmt.Fprintf(out, "storage_path: %s\n", res.cfg.StoragePath())
			if res.cfg.Logging.File != "" {
				_, _ = fmt.Fprintf(out, "log_file: %s\n", res.cfg.Logging.File)
			}
			return nil
		},
	}
}

// formatActiveTask renders one line of `list` output.
func formatActiveTask(task domain.Task, now time.Time, display config.DisplayConfig) string {
	mark := "[ ]"
	if task.Completed {
		mark = "[✓]"
	}
	due := domain.FormatDueDate(task.DueDate, display.DateFormat, "No due date")
	if display.ShowOverdue && task.IsOverdue(now) {
		due += " (OVERDUE!)"
	}
	return fmt.Sprintf("%s %d: %s (Due: %s, Tags: %s, Priority: %s)", mark, task.ID, task.Description, due, formatTags(task.Tags), task.Priority)
}

// formatArchivedTask renders one line of `list-archived` output.
func formatArchivedTask(task domain.Task, display config.DisplayConfig) string {
	due := domain.FormatDueDate(task.DueDate, display.DateFormat, "No due date")
	return fmt.Sprintf("[✓] %d: %s (Due: %s, Tags: %s)", task.ID, task.Description, due, formatTags(task.Tags))
}

// formatTags renders tags as ["a", "b"].
func formatTags(tags []string) string {
	quoted := make([]string, 0, len(tags))
	for _, tag := range tags {
		quoted = append(quoted, strconv.Quote(tag))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func toTUIKeyConfig(cfg config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Add:     cfg.Add,
		Delete:  cfg.Delete,
		Done:    cfg.Done,
		Archive: cfg.Archive,
		Undo:    cfg.Undo,
	}
}

func toTUIDisplayConfig(cfg config.DisplayConfig) tui.DisplayConfig {
	return tui.DisplayConfig{
		DateFormat:     cfg.DateFormat,
		ShowOverdue:    cfg.ShowOverdue,
		RenderMarkdown: cfg.RenderMarkdown,
	}
}


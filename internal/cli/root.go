// Package cli implements the tasktrackr command line on top of the task service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BuzzLyutic/tasktrackr/internal/config"
	"github.com/BuzzLyutic/tasktrackr/internal/repo"
	"github.com/BuzzLyutic/tasktrackr/internal/service"
)

// OpenFunc builds the record store for a command; repo.Open in production.
type OpenFunc func(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.RecordStore, error)

type app struct {
	stdout io.Writer
	stderr io.Writer
	open   OpenFunc
	opts   []service.Option

	driver  string
	path    string
	verbose bool

	logger *zap.Logger
	store  repo.RecordStore
	svc    *service.TaskService
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return run(ctx, args, stdout, stderr, repo.Open)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open OpenFunc, opts ...service.Option) int {
	a := &app{stdout: stdout, stderr: stderr, open: open, opts: opts}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(stderr, "Run 'tasktrackr help' for usage.")
		}
	}
	return ExitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tasktrackr",
		Short: "TaskTrackr - simple task management",
		Long: `TaskTrackr - simple task management.

Status options: Pending, In Progress, Completed`,
		Example: `  tasktrackr add "Buy milk" "Buy from local store"
  tasktrackr list
  tasktrackr delete abc123
  tasktrackr update abc123 "Buy organic milk" "" "In Progress"`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usage(fmt.Errorf("unknown command %q", args[0]))
			}
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})

	f := root.PersistentFlags()
	f.StringVar(&a.driver, "store", "", "store driver: memory, file, postgres, redis, etcd (default $STORE_DRIVER or file)")
	f.StringVar(&a.path, "path", "", "tasks file for the file driver (default $STORE_PATH or data/tasks.json)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.addCommand(),
		a.listCommand(),
		a.showCommand(),
		a.updateCommand(),
		a.deleteCommand(),
	)
	return root
}

// taskService открывает хранилище при первом обращении; help и ошибки аргументов его не трогают.
func (a *app) taskService(ctx context.Context) (*service.TaskService, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	a.logger = newLogger(a.stderr, a.verbose)

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, usage(err)
	}
	if a.driver != "" {
		cfg.StoreDriver = a.driver
	}
	if a.path != "" {
		cfg.StorePath = a.path
	}
	if err := cfg.Validate(); err != nil {
		return nil, usage(err)
	}

	store, err := a.open(ctx, cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.svc = service.NewTaskService(store, append([]service.Option{service.WithLogger(a.logger)}, a.opts...)...)
	return a.svc, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// positional оборачивает валидатор аргументов cobra, чтобы ошибка давала код ExitUsage.
func positional(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usage(v(cmd, args))
	}
}

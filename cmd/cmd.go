package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thiagokokada/plastic-go/internal/buildinfo"
	"github.com/thiagokokada/plastic-go/internal/config"
	"github.com/thiagokokada/plastic-go/internal/logging"
	"github.com/thiagokokada/plastic-go/internal/plastic"
	"github.com/thiagokokada/plastic-go/internal/plastic/backend"
)

// openService launches the cm shell for cfg; tests swap it for a fake.
var openService = func(cfg config.Config) (*plastic.Service, error) {
	return plastic.Open(cfg.CM, backend.Options{
		ActivityTimeout: cfg.CM.ActivityTimeout(),
		ExitWait:        cfg.CM.ExitWait(),
	})
}

var dumpToFile = backend.DumpToFile

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(os.Getenv).ExecuteContext(ctx)
}

type app struct {
	getenv     func(string) string
	configPath string
	root       string
	verbose    bool

	cfg      config.Config
	closeLog func() error
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv, closeLog: func() error { return nil }}
	root := &cobra.Command{
		Use:   "plastic-go",
		Short: "Query a Plastic SCM workspace through a persistent cm shell",
		Long: `plastic-go keeps one "cm shell" process alive and uses it to report file
status, locks and history for a Plastic SCM workspace.`,
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.closeLog()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or the user config dir)")
	flags.StringVar(&a.root, "root", "", "directory inside the workspace (default: current directory)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newStatusCmd(a),
		newHistoryCmd(a),
		newCatCmd(a),
		newDiffCmd(a),
		newInfoCmd(a),
		newRootDirCmd(a),
		newWatchCmd(a),
		newVersionCmd(a),
	)
	return root
}

// load reads the configuration and installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	start := a.root
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		start = cwd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", start, err)
	}
	wsRoot, found := plastic.FindRootDirectory(start)

	path := a.configPath
	if path == "" {
		path = config.DefaultPath(a.getenv)
	}
	cfg, err := config.Load(path, config.Default(plastic.FindBinaryPath(), wsRoot))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.root != "" || cfg.CM.WorkspaceRoot == "" {
		cfg.CM.WorkspaceRoot = wsRoot
	}
	a.cfg = cfg

	closeLog, err := logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: a.verbose,
	}.WithEnv(a.getenv), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.closeLog = closeLog
	if !found {
		slog.Debug("no workspace marker found", slog.String("path", start))
	}
	slog.Debug("configuration loaded",
		slog.String("config", path),
		slog.String("binary", cfg.CM.Binary),
		slog.String("root", cfg.CM.WorkspaceRoot),
	)
	return nil
}

// connect opens the shell and reads the workspace identity. The caller closes
// the returned service.
func (a *app) connect(ctx context.Context) (*plastic.Service, error) {
	svc, err := openService(a.cfg)
	if err != nil {
		if errors.Is(err, backend.ErrProcessUnavailable) {
			return nil, fmt.Errorf("%w (is %s installed?)", err, a.cfg.CM.Binary)
		}
		return nil, err
	}
	if err := svc.Connect(ctx); err != nil {
		svc.Close()
		if errors.Is(err, backend.ErrShellNotRunning) {
			return nil, fmt.Errorf("%w (check %s and %s)", err, a.cfg.CM.Binary, a.cfg.CM.WorkspaceRoot)
		}
		return nil, err
	}
	return svc, nil
}

// absPaths resolves args against the working directory.
func absPaths(args []string) ([]string, error) {
	paths := make([]string, len(args))
	for i, arg := range args {
		p, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, err)
		}
		paths[i] = p
	}
	return paths, nil
}

// relTo shows path relative to root when it lies inside it.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"msafara/internal/app"
	"msafara/internal/config"
	"msafara/internal/seq"
	"msafara/internal/storage"
	"msafara/internal/ui"
)

type options struct {
	sessionPath string
	userOrder   string
	configPath  string
	info        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "msafara [alignment.fasta]",
		Short:         "View, search and curate multiple sequence alignments",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return run(cmd.OutOrStdout(), input, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.sessionPath, "session", "s", "", "session file to load (or save to)")
	cmd.Flags().StringVarP(&opts.userOrder, "user-order", "u", "", "file with one header per line giving a custom order")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: $MSAFARA_CONFIG or ~/.config/msafara/config.toml)")
	cmd.Flags().BoolVarP(&opts.info, "info", "i", false, "print alignment info and exit")
	return cmd
}

func run(out io.Writer, input string, opts options) error {
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := openApp(input, opts, cfg, logger)
	if err != nil {
		return err
	}
	if opts.info {
		fmt.Fprintln(out, a.Info())
		return nil
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	sessionPath := opts.sessionPath
	if sessionPath != "" {
		if err := store.RecordSession(storage.SessionEntry{
			Path:        sessionPath,
			Source:      a.Filename(),
			Action:      storage.ActionLoad,
			Records:     len(a.Records()),
			Views:       len(a.ViewNames()),
			CurrentView: a.CurrentViewName(),
		}); err != nil {
			logger.Warn("session not recorded", "path", sessionPath, "err", err)
		}
	}
	return ui.Run(a, store, cfg, sessionPath)
}

func newLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return log.New(io.Discard), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{ReportTimestamp: true, Prefix: "msafara"})
	logger.SetLevel(level)
	return logger, func() { f.Close() }, nil
}

func openApp(input string, opts options, cfg config.Config, logger *log.Logger) (*app.App, error) {
	palette, err := cfg.Palette()
	if err != nil {
		return nil, err
	}
	current, err := cfg.CurrentSearchColor()
	if err != nil {
		return nil, err
	}
	appOpts := []app.Option{
		app.WithLogger(logger),
		app.WithTools(app.Tools{EmbossBinDir: cfg.Tools.EmbossBinDir, MafftBinDir: cfg.Tools.MafftBinDir}),
		app.WithColors(app.Colors{Palette: palette, CurrentSearch: current}),
	}

	if opts.sessionPath != "" {
		if _, err := os.Stat(opts.sessionPath); err == nil {
			return app.LoadSession(opts.sessionPath, appOpts...)
		} else if !errors.Is(err, os.ErrNotExist) || input == "" {
			return nil, err
		}
	}
	if input == "" {
		return nil, errors.New("an alignment file or --session is required")
	}

	entries, err := seq.ReadFastaFile(input)
	if err != nil {
		return nil, err
	}
	var userOrdering []string
	if opts.userOrder != "" {
		names, err := readLines(opts.userOrder)
		if err != nil {
			return nil, err
		}
		if sameHeaders(entries, names) {
			userOrdering = names
		} else {
			fmt.Fprintf(os.Stderr, "warning: %s does not list the alignment's headers; ignoring it\n", opts.userOrder)
			logger.Warn("user ordering ignored", "path", opts.userOrder)
		}
	}
	logger.Info("alignment loaded", "path", input, "sequences", len(entries))
	return app.New(input, entries, userOrdering, appOpts...), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// sameHeaders reports whether names lists every header exactly once.
func sameHeaders(entries []seq.Entry, names []string) bool {
	if len(entries) != len(names) {
		return false
	}
	want := make(map[string]int, len(entries))
	for _, e := range entries {
		want[e.Header]++
	}
	for _, n := range names {
		if want[n] == 0 {
			return false
		}
		want[n]--
	}
	return true
}

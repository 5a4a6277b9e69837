package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/czj19920117/mbox/internal/config"
	"github.com/czj19920117/mbox/internal/history"
	"github.com/czj19920117/mbox/internal/logger"
	"github.com/czj19920117/mbox/internal/sandbox"
	"github.com/czj19920117/mbox/internal/watch"
)

func runCmd() *cobra.Command {
	var rootFlag string
	var interactive bool
	var usePTY bool
	var useWatch bool
	var cpuSeconds int
	var memMB int
	var logLevel string
	var logFile string
	var historyDB string

	cmd := &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "Trace COMMAND, redirecting its filesystem writes into an overlay",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if rootFlag != "" {
				cfg.Root = rootFlag
			}
			if cmd.Flags().Changed("interactive") {
				cfg.Interactive = interactive
			}
			if cmd.Flags().Changed("pty") {
				cfg.PTY = usePTY
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = useWatch
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFile != "" {
				cfg.LogFile = logFile
			}
			if historyDB != "" {
				cfg.HistoryDB = historyDB
			}

			if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			root, err := cfg.ResolveRoot()
			if err != nil {
				return err
			}
			if err := config.SetupTestEnv(root); err != nil {
				return fmt.Errorf("setup test env: %w", err)
			}

			sbctx, err := sandbox.NewContext(root, cfg.Interactive)
			if err != nil {
				return err
			}
			sbctx.PTY = cfg.PTY
			sbctx.CPULimitSeconds = cpuSeconds
			sbctx.MemLimitBytes = int64(memMB) * 1024 * 1024

			if cfg.Watch {
				w, err := watch.New(root)
				if err != nil {
					return fmt.Errorf("start watch: %w", err)
				}
				defer w.Close()
				go func() {
					watchLog := logger.Cat("watch")
					for ev := range w.Events() {
						watchLog.Info("overlay changed", "path", ev.Path, "op", ev.Op.String())
					}
				}()
			}

			hist, err := openHistoryOptional(cfg)
			if err != nil {
				logger.Cat("history").Warn("could not open history db", "err", err)
			}
			if hist != nil {
				defer hist.Close()
			}

			runID := uuid.New().String()
			startedAt := time.Now()
			if hist != nil {
				if err := hist.StartRun(&history.Run{
					ID:        runID,
					Root:      root,
					Command:   strings.Join(args, " "),
					StartedAt: startedAt,
				}); err != nil {
					logger.Cat("history").Warn("could not record run start", "err", err)
				}
			}

			tr := sandbox.NewTracer(sbctx)
			exitCode, runErr := tr.Run(args[0], args[1:], nil, os.Stdin, os.Stdout, os.Stderr)

			if hist != nil {
				if err := hist.FinishRun(runID, time.Now(), exitCode); err != nil {
					logger.Cat("history").Warn("could not record run finish", "err", err)
				}
				if len(tr.Decisions) > 0 {
					entries := make([]history.CommitEntry, len(tr.Decisions))
					for i, d := range tr.Decisions {
						entries[i] = history.CommitEntry{HPN: d.HPN, Committed: d.Committed}
					}
					if err := hist.RecordCommits(runID, entries, time.Now()); err != nil {
						logger.Cat("history").Warn("could not record commit decisions", "err", err)
					}
				}
			}

			if runErr != nil {
				return runErr
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "Overlay directory (default from config)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt to commit overlay files back to host on exit")
	cmd.Flags().BoolVar(&usePTY, "pty", false, "Allocate a pseudo-terminal for the traced command")
	cmd.Flags().BoolVar(&useWatch, "watch", false, "Log overlay mutations as they happen")
	cmd.Flags().IntVar(&cpuSeconds, "cpu", 0, "CPU time limit in seconds (0 = unlimited)")
	cmd.Flags().IntVar(&memMB, "mem", 0, "Virtual memory limit in MB (0 = unlimited)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "sqlite path for the commit history audit trail")
	return cmd
}

func openHistoryOptional(cfg *config.Config) (*history.History, error) {
	dsn := cfg.HistoryDB
	if dsn == "" {
		p, err := config.DefaultHistoryDB()
		if err != nil {
			return nil, err
		}
		dsn = p
	}
	return history.Open(dsn)
}

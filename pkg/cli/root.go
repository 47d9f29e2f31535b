/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/config"
	"github.com/arkonlabs/arkon/pkg/logging"
	"github.com/arkonlabs/arkon/pkg/output"
	"github.com/arkonlabs/arkon/pkg/platform"
	"github.com/arkonlabs/arkon/pkg/profile"
	"github.com/arkonlabs/arkon/pkg/transaction"
)

const name = "arkon"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Config file path",
		Sources: cli.EnvVars("ARKON_CONFIG"),
	}
	stateDirFlag = &cli.StringFlag{
		Name:    "state-dir",
		Usage:   "Override the state directory holding profiles and the transaction journal",
		Sources: cli.EnvVars("ARKON_STATE_DIR"),
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "info",
	}
	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (json, yaml, table)",
		Value:   "yaml",
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Kernel boot-parameter management for latency-tuned Linux systems",
		Description: fmt.Sprintf(`arkon manages persistent kernel boot parameters across GRUB and
rpm-ostree systems with profile snapshots and transactional applies.

Version: %s
Commit:  %s
Built:   %s`, version, commit, date),
		Version: version,
		Flags: []cli.Flag{
			configFlag,
			stateDirFlag,
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting", "name", name, "version", version, "commit", commit)
			return ctx, nil
		},
		Commands: []*cli.Command{
			baselineCmd(),
			applyCmd(),
			restoreCmd(),
			saveCmd(),
			diffCmd(),
			listCmd(),
			deleteCmd(),
			topologyCmd(),
			statusCmd(),
		},
	}
}

// Run executes the CLI with the given arguments. It is called by
// main.main() and returns the process exit code.
func Run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// loadConfig resolves the effective config from the --config file and
// --state-dir override.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := cmd.String("state-dir"); dir != "" {
		cfg.StateDir = dir
	}
	return cfg, nil
}

// loadStore wires config, platform backend, coordinator, and store for
// commands that touch the live system.
func loadStore(cmd *cli.Command) (*profile.Store, *platform.Services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc, err := platform.NewServices(cfg)
	if err != nil {
		return nil, nil, err
	}
	coor := transaction.NewCoordinator(cfg, svc.KernelParams)
	return profile.NewStore(cfg, svc.KernelParams, coor), svc, nil
}

// newOutputWriter validates the --format flag and builds a writer.
func newOutputWriter(cmd *cli.Command) (*output.Writer, error) {
	format := output.Format(cmd.String("format"))
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown output format: %q", format)
	}
	return output.NewWriter(format, cmd.Root().Writer), nil
}

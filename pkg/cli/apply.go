/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/transaction"
)

type applyResult struct {
	Transaction *transaction.Record `json:"transaction" yaml:"transaction"`
	RebootHint  string              `json:"rebootHint,omitempty" yaml:"rebootHint,omitempty"`
}

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "apply",
		EnableShellCompletion: true,
		Usage:                 "Apply a saved profile to the boot configuration",
		ArgsUsage:             "NAME",
		Description: `Apply a saved profile's kernel parameters through the platform backend.

The live set is snapshotted before the change, the requested diff is
recomputed against current reality, and the whole apply runs as an
audited transaction with best-effort rollback on failure. Changes take
effect on next boot.`,
		Flags: []cli.Flag{formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("profile name required: arkon apply NAME")
			}
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}
			rec, err := store.ApplyProfile(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to apply profile %q: %w", name, err)
			}
			return w.Write(applyRecordResult(rec))
		},
	}
}

func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:                  "restore",
		EnableShellCompletion: true,
		Usage:                 "Restore the baseline kernel parameters",
		Description: `Apply the baseline profile, reverting every parameter change made
since it was captured. Equivalent to: arkon apply baseline.`,
		Flags: []cli.Flag{formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}
			rec, err := store.RestoreBaseline(ctx)
			if err != nil {
				return fmt.Errorf("failed to restore baseline: %w", err)
			}
			return w.Write(applyRecordResult(rec))
		},
	}
}

func applyRecordResult(rec *transaction.Record) applyResult {
	res := applyResult{Transaction: rec}
	if rec.Succeeded() && !rec.NoChange {
		res.RebootHint = "changes take effect on next boot"
	}
	return res
}

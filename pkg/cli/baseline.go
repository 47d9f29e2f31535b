/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type baselineResult struct {
	Profile string `json:"profile" yaml:"profile"`
	Path    string `json:"path" yaml:"path"`
	Created bool   `json:"created" yaml:"created"`
}

func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:                  "baseline",
		EnableShellCompletion: true,
		Usage:                 "Capture the current kernel parameters as the baseline profile",
		Description: `Capture the live kernel parameter set as the baseline profile, the
restore point for all later changes.

The capture is idempotent: if a baseline already exists it is left
untouched and the command still succeeds. Run this once before applying
any tuning profiles.`,
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
			res, err := store.SaveBaseline(ctx)
			if err != nil {
				return err
			}
			return w.Write(baselineResult{
				Profile: res.Name,
				Path:    res.Path,
				Created: res.Created,
			})
		},
	}
}

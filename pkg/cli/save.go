/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/params"
)

func saveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "save",
		EnableShellCompletion: true,
		Usage:                 "Save kernel parameters as a named profile",
		ArgsUsage:             "NAME",
		Description: `Save a named profile under the state directory.

By default the live kernel parameter set is captured. With --params the
given command line is saved instead, so a profile can be authored
without first applying it:

  arkon save latency --params "isolcpus=8-15 nohz_full=8-15 rcu_nocbs=8-15"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "params",
				Usage: "Explicit kernel command line to save instead of the live set",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Replace the profile if it already exists",
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("profile name required: arkon save NAME")
			}
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			store, svc, err := loadStore(cmd)
			if err != nil {
				return err
			}

			var set *params.Set
			if raw := cmd.String("params"); raw != "" {
				set, err = params.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid --params value: %w", err)
				}
			} else {
				set, err = svc.KernelParams.Current(ctx)
				if err != nil {
					return err
				}
			}

			res, err := store.SaveProfile(name, set, cmd.Bool("overwrite"))
			if err != nil {
				return fmt.Errorf("failed to save profile %q: %w", name, err)
			}
			return w.Write(baselineResult{
				Profile: res.Name,
				Path:    res.Path,
				Created: res.Created,
			})
		},
	}
}

/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/profile"
)

type listResult struct {
	Profiles []string `json:"profiles" yaml:"profiles"`
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List saved profiles",
		Flags:                 []cli.Flag{formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Listing is a pure directory read; no backend needed.
			names, err := profile.NewStore(cfg, nil, nil).ListProfiles()
			if err != nil {
				return err
			}
			return w.Write(listResult{Profiles: names})
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:                  "delete",
		EnableShellCompletion: true,
		Usage:                 "Delete a saved profile",
		ArgsUsage:             "NAME",
		Description: `Delete a saved profile. The baseline profile cannot be deleted; it is
the only trustworthy restore point.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("profile name required: arkon delete NAME")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := profile.NewStore(cfg, nil, nil).DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to delete profile %q: %w", name, err)
			}
			fmt.Fprintf(cmd.Root().Writer, "deleted profile %q\n", name)
			return nil
		},
	}
}

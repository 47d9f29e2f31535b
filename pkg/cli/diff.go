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

type diffResult struct {
	Profile  string   `json:"profile" yaml:"profile"`
	InSync   bool     `json:"inSync" yaml:"inSync"`
	Added    []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed  []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed  []string `json:"changed,omitempty" yaml:"changed,omitempty"`
}

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:                  "diff",
		EnableShellCompletion: true,
		Usage:                 "Show what applying a profile would change",
		ArgsUsage:             "NAME",
		Description: `Compare the live kernel parameter set against a saved profile without
modifying anything. Added parameters would be introduced by the profile,
removed ones dropped, and changed ones carry a different value.`,
		Flags: []cli.Flag{formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("profile name required: arkon diff NAME")
			}
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			store, _, err := loadStore(cmd)
			if err != nil {
				return err
			}
			diff, err := store.DiffProfile(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to diff profile %q: %w", name, err)
			}
			return w.Write(newDiffResult(name, diff))
		},
	}
}

func newDiffResult(name string, diff params.Diff) diffResult {
	res := diffResult{Profile: name, InSync: diff.Empty()}
	for _, tok := range diff.Added {
		res.Added = append(res.Added, tok.Raw())
	}
	for _, tok := range diff.Removed {
		res.Removed = append(res.Removed, tok.Raw())
	}
	for _, ch := range diff.Changed {
		res.Changed = append(res.Changed, fmt.Sprintf("%s -> %s", ch.Old.Raw(), ch.New.Raw()))
	}
	return res
}

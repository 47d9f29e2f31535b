/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/transaction"
)

type statusResult struct {
	Platform      string               `json:"platform" yaml:"platform"`
	Backend       string               `json:"backend" yaml:"backend"`
	CurrentParams string               `json:"currentParams" yaml:"currentParams"`
	Transactions  []transaction.Record `json:"transactions,omitempty" yaml:"transactions,omitempty"`
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Show the detected platform, live parameters, and recent transactions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of recent transactions to show",
				Value: 5,
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			_, svc, err := loadStore(cmd)
			if err != nil {
				return err
			}

			current, err := svc.KernelParams.Current(ctx)
			if err != nil {
				return err
			}
			records, err := transaction.NewJournal(svc.Config.JournalPath()).List(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			return w.Write(statusResult{
				Platform:      svc.Platform.String(),
				Backend:       svc.KernelParams.Kind().String(),
				CurrentParams: current.String(),
				Transactions:  records,
			})
		},
	}
}

/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/arkonlabs/arkon/pkg/topology"
)

type topologyResult struct {
	Topology        topology.Topology `json:"topology" yaml:"topology"`
	IsolationParams string            `json:"isolationParams,omitempty" yaml:"isolationParams,omitempty"`
}

func topologyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "topology",
		EnableShellCompletion: true,
		Usage:                 "Show detected CPU topology and suggested isolation parameters",
		Description: `Detect the CPU topology from sysfs, classify performance and
efficiency cores on hybrid parts, and print the isolation parameter set
(isolcpus, nohz_full, rcu_nocbs) that would pin the efficiency cores.

This is read-only. To act on the suggestion, save it as a profile:

  arkon save ecore-isolation --params "$(arkon topology -f json | jq -r .isolationParams)"`,
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "freq-ratio",
				Usage: "Efficiency-core threshold as a fraction of the modal max frequency",
			},
			&cli.BoolFlag{
				Name:  "heuristic",
				Usage: "On non-hybrid parts, suggest isolating the trailing fraction of CPUs anyway",
			},
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ratio := cfg.ECoreFreqRatio
			if v := cmd.Float("freq-ratio"); v > 0 {
				ratio = v
			}
			det := topology.NewDetector(topology.WithFreqRatio(ratio))
			topo, err := det.Detect(ctx)
			if err != nil {
				return err
			}

			if cmd.Bool("heuristic") && !topo.IsHybrid {
				topo.RecommendedIsolate = topology.HeuristicIsolate(topo, cfg.ECoreFallbackFraction)
			}

			res := topologyResult{Topology: topo}
			if iso := topology.GenerateIsolationParams(topo); iso.Len() > 0 {
				res.IsolationParams = iso.String()
			}
			return w.Write(res)
		},
	}
}

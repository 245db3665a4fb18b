// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/bang-cluster/internal/datasetio"
	"git.lukeshu.com/bang-cluster/lib/bang"
)

func init() {
	var flags engineFlags
	var normalize bool
	var saveState string

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "cluster TUPLES.txt",
			Short: "Build a clustering index over a tuple file and report its clusters",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if r := derror.PanicToError(recover()); r != nil {
					err = fmt.Errorf("panicked: %w", r)
				}
			}()
			ctx := cmd.Context()

			reader := datasetio.NewReader(ctx, 1*time.Second)
			dataset, err := reader.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(dataset.Tuples) == 0 {
				return fmt.Errorf("%s: no tuples found", args[0])
			}

			tuples := dataset.Tuples
			if normalize {
				tuples, err = datasetio.NormalizeMinMax(tuples)
				if err != nil {
					return err
				}
			}

			engine, err := bang.NewWithContext(ctx, uint32(len(tuples[0])), flags.Bucketsize, flags.NeighborMargin, flags.ClusterPercent)
			if err != nil {
				return err
			}
			for i, tuple := range tuples {
				if err := engine.Insert(tuple); err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
			}
			var inconsistency *bang.InternalInconsistencyError
			if err := engine.Build(ctx); err != nil {
				if !errors.As(err, &inconsistency) {
					return err
				}
				dlog.Warnf(ctx, "%v; proceeding with the built index", err)
			}

			if saveState != "" {
				fh, err := os.Create(saveState)
				if err != nil {
					return err
				}
				defer fh.Close()
				if err := engine.EncodeJSON(fh); err != nil {
					return err
				}
			}

			return engine.RenderReport(cmd.OutOrStdout())
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&normalize, "normalize", false, "min/max-normalize each column into [0,1] before clustering")
	cmd.Flags().StringVar(&saveState, "save-state", "", "write the built index to `file` for later classify/report invocations")
	subcommands = append(subcommands, cmd)
}

// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"
)

func init() {
	var statePath string

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "report",
			Short: "Print the cluster report for a previously built index",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer func() {
				if r := derror.PanicToError(recover()); r != nil {
					err = fmt.Errorf("panicked: %w", r)
				}
			}()

			engine, err := loadEngine(statePath)
			if err != nil {
				return err
			}
			return engine.RenderReport(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "path to a state file written by `cluster --save-state`")
	_ = cmd.MarkFlagRequired("state")
	subcommands = append(subcommands, cmd)
}

// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"git.lukeshu.com/bang-cluster/lib/bang"
)

func init() {
	var statePath string

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "classify TUPLE",
			Short: "Report which cluster a tuple belongs to in a previously built index",
			Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if r := derror.PanicToError(recover()); r != nil {
					err = fmt.Errorf("panicked: %w", r)
				}
			}()

			engine, err := loadEngine(statePath)
			if err != nil {
				return err
			}

			tuple, err := parseTuple(args[0])
			if err != nil {
				return err
			}

			idx, err := engine.ClusterOf(tuple)
			if err != nil {
				return err
			}
			if idx < 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "unclustered")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), idx)
			return err
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "path to a state file written by `cluster --save-state`")
	_ = cmd.MarkFlagRequired("state")
	subcommands = append(subcommands, cmd)
}

func parseTuple(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func loadEngine(path string) (*bang.Engine, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var engine bang.Engine
	if err := engine.DecodeJSON(bufio.NewReader(fh)); err != nil {
		return nil, err
	}
	return &engine, nil
}

// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command bang-cluster builds a BANG-file grid index over a tuple
// dataset, reports the resulting clusters, and classifies new tuples
// against a previously built index.
package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"git.lukeshu.com/bang-cluster/lib/profile"
	"git.lukeshu.com/bang-cluster/lib/textui"
)

type logLevelFlag struct {
	logrus.Level
}

func (lvl *logLevelFlag) Type() string { return "loglevel" }
func (lvl *logLevelFlag) Set(str string) error {
	var err error
	lvl.Level, err = logrus.ParseLevel(str)
	return err
}

var _ pflag.Value = (*logLevelFlag)(nil)

// engineFlags holds the three tuning parameters every subcommand that
// builds an Engine exposes (spec.md §6's S, N, C).
type engineFlags struct {
	Bucketsize     uint32
	NeighborMargin uint32
	ClusterPercent uint32
}

func (f *engineFlags) register(flags *pflag.FlagSet) {
	flags.Uint32VarP(&f.Bucketsize, "bucketsize", "S", 100, "maximum region population before a split is forced")
	flags.Uint32VarP(&f.NeighborMargin, "neighbor-margin", "N", 1, "neighborhood strictness: regions are neighbors when at most (dimensions - this) dimensions differ by one grid step")
	flags.Uint32VarP(&f.ClusterPercent, "cluster-percent", "C", 50, "percentage of tuples to fold into the densest clusters")
}

type subcommand struct {
	cobra.Command
	RunE func(cmd *cobra.Command, args []string) error
}

var subcommands []subcommand

func main() {
	logLevel := logLevelFlag{Level: logrus.InfoLevel}

	argparser := &cobra.Command{
		Use:   "bang-cluster {[flags]|SUBCOMMAND}",
		Short: "Build and query a BANG-file grid clustering index",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevel, "verbosity", "set the verbosity")
	stopProfiling := profile.AddProfileFlags(argparser.PersistentFlags(), "profile-")

	for _, child := range subcommands {
		cmd := child.Command
		runE := child.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			logger := logrus.New()
			logger.SetLevel(logLevel.Level)
			ctx = dlog.WithLogger(ctx, dlog.WrapLogrus(logger))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) error {
				cmd.SetContext(ctx)
				return runE(cmd, args)
			})
			return grp.Wait()
		}
		argparser.AddCommand(&cmd)
	}

	err := argparser.ExecuteContext(context.Background())
	if stopErr := stopProfiling(); err == nil {
		err = stopErr
	}
	if err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"imbind/internal/config"
	"imbind/internal/pipeline"
)

var passesCmd = &cobra.Command{
	Use:   "passes [manifest]",
	Short: "List the pipeline steps in the order they run",
	Long: `List the steps generate would run for the manifest, or for the built-in
Dear ImGui defaults when no manifest is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := passesConfig(args)
		if err != nil {
			return err
		}
		steps, _, err := plan(cfg, generateOptions{}, nil)
		if err != nil {
			return err
		}
		return writeSteps(cmd.OutOrStdout(), steps)
	},
}

func passesConfig(args []string) (*config.Config, error) {
	if len(args) == 0 {
		if _, ok, err := config.FindManifest("."); err != nil || !ok {
			cfg := config.Default()
			return &cfg, err
		}
	}
	manifest, err := locateManifest(args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(manifest)
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

func writeSteps(out io.Writer, steps []pipeline.Step) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, s := range steps {
		fmt.Fprintf(tw, "%3d\t%s\t%s\n", i+1, s.Stage, s.Name)
	}
	return tw.Flush()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/pipeline"
)

func newGraphCommand() *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:         "graph",
		Short:       "Print the pipeline stage graphs",
		Long:        "Prints the research graph and the script graph as Mermaid flowcharts, or as ASCII trees with --ascii.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := pipeline.DiagramMermaid
			if ascii {
				format = pipeline.DiagramASCII
			}
			out, err := pipeline.Diagram(format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "Draw ASCII trees instead of Mermaid")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/script"
)

func newAnalyzeCommand() *cobra.Command {
	var filePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "analyze [text]",
		Short:       "Score a script: word count, duration, readability and hook strength",
		Long:        "Analyzes the text given as arguments, the file named by --file, or stdin with --file -.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := analyzeInput(cmd.InOrStdin(), filePath, args)
			if err != nil {
				return err
			}
			a := script.Analyze(text)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			rows := [][]string{
				{"Words", fmt.Sprintf("%d", a.WordCount)},
				{"Estimated duration", render.Duration(a.EstimatedDuration)},
				{"Readability", fmt.Sprintf("%d/100", a.ReadabilityScore)},
				{"Hook strength", fmt.Sprintf("%d/100", a.HookStrength)},
			}
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}, 0))
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Read the script from a file (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	return cmd
}

func analyzeInput(stdin io.Reader, filePath string, args []string) (string, error) {
	switch {
	case filePath == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("nothing to analyze: pass text or --file")
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/store"
)

func newScriptsCommand(ctx *commandContext) *cobra.Command {
	scriptsCmd := &cobra.Command{
		Use:   "scripts",
		Short: "Browse archived scripts",
	}

	scriptsCmd.AddCommand(newScriptsListCommand(ctx))
	scriptsCmd.AddCommand(newScriptsShowCommand(ctx))
	scriptsCmd.AddCommand(newScriptsDeleteCommand(ctx))

	return scriptsCmd
}

func newScriptsListCommand(ctx *commandContext) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived scripts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s store.ScriptStore) error {
				records, err := s.List(cmd.Context(), topic)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No archived scripts.")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{
						r.ID,
						r.Topic,
						fmt.Sprintf("%d", r.Analysis.WordCount),
						render.Duration(r.Analysis.EstimatedDuration),
						r.CreatedAt.Local().Format(time.DateTime),
					})
				}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable([]string{"ID", "Topic", "Words", "Duration", "Created"}, rows, aligns, 48))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Only list scripts for this video idea")
	return cmd
}

func newScriptsShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s store.ScriptStore) error {
				record, err := s.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(record)
				}
				data, err := renderDocument(render.FromRecord(record), format)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md, html, txt or json")
	return cmd
}

func newScriptsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s store.ScriptStore) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

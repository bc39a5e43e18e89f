package main

import (
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/gathercontent-resolver/internal/config"
	"github.com/Sternrassler/gathercontent-resolver/pkg/enhancer"
	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/spf13/cobra"
)

type resolveOptions struct {
	source  string
	preview bool
	entries bool
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [item-id...]",
		Short: "Resolve item ids once and print them as JSON",
		Long: `Runs a single-parameter batch and prints the resolved items in
requested order.

Example:
  gc-proxy resolve 30 10 20
  gc-proxy resolve --source marketing --preview --entries 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := config.Build(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			e, err := enhancer.New(enhancer.Options{Registry: svc.Registry})
			if err != nil {
				return err
			}

			task := enhancer.NewFetchTask(
				enhancer.Component{Type: "cli"},
				enhancer.Parameter{
					Name:  "items",
					Type:  enhancer.ParameterTypeItems,
					Value: &enhancer.ParameterValue{ItemIDs: args, Source: opts.source},
				},
			)
			if err := e.HandleBatch(cmd.Context(), []enhancer.Task{task}, enhancer.Context{Preview: opts.preview}); err != nil {
				return err
			}

			items, err := task.Wait(cmd.Context())
			if err != nil {
				return err
			}

			var out any = items
			if opts.entries {
				entries := make([]gathercontent.Entry, len(items))
				for i, item := range items {
					entries[i] = item.Entry()
				}
				out = entries
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode items: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "source key (default \"default\")")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "use the preview client")
	cmd.Flags().BoolVar(&opts.entries, "entries", false, "print normalized entries instead of raw items")

	return cmd
}

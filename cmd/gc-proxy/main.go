// Command gc-proxy resolves GatherContent item selector parameters, either
// as an HTTP service or one batch at a time from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/gathercontent-resolver/internal/config"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gc-proxy",
		Short: "Batch GatherContent item resolver",
		Long: `Resolves GatherContent item selector parameters in batches.

Every request to GatherContent passes through one shared throttle
(250 requests per 15s by default) and is retried on transient failures.

Credentials come from the config file or from
GATHERCONTENT_API_USERNAME, GATHERCONTENT_API_KEY and
GATHERCONTENT_PROJECT_ID for the default source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log)
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "gc-proxy.yaml", "path to the YAML config file")
	cmd.AddCommand(newServeCmd(opts), newResolveCmd(opts))

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

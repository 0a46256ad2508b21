package main

import (
	"github.com/spf13/cobra"
)

var (
	noColor  bool
	verbose  bool
	dataPath string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "curatorctl",
		Short: "Curator administration CLI",
		Long: `curatorctl manages a Curator server's data offline.

It checks seed datasets for parity, imports them, and manages users and
access tokens. Commands that open the database must run while the server
is stopped.

Example usage:
  curatorctl parity check --base seed/base --working seed/working
  curatorctl seed import --base seed/base --working seed/working --user reader@example.com
  curatorctl user create --email reader@example.com --name Reader
  curatorctl token issue --user reader@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().StringVar(&dataPath, "data-path", "", "server data directory (default: DATA_PATH or ~/Curator/data)")

	root.AddCommand(newParityCmd(), newSeedCmd(), newUserCmd(), newTokenCmd())
	return root
}

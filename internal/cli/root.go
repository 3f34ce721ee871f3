// Package cli implements the receiptd command line: the gateway server and
// its admin commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Komal-TGT/Storage-service/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string

	runtime []RuntimeOption
}

// NewRootCommand creates the receiptd root command. opts are applied to the
// runtime of every subcommand.
func NewRootCommand(opts ...RuntimeOption) *cobra.Command {
	root := &RootOptions{runtime: opts}

	cmd := &cobra.Command{
		Use:   "receiptd",
		Short: "Receipt storage gateway",
		Long: `receiptd stores POS receipt PDFs in an S3 bucket, issues expiring and
permanent capability links, and copies every receipt into a backup bucket.

Configuration comes from the environment, optionally layered over a YAML
file of the same keys (--config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&root.ConfigPath, "config", "c", "", "YAML file of configuration keys")

	cmd.AddCommand(NewServeCommand(root))
	cmd.AddCommand(NewBackupCommand(root))
	cmd.AddCommand(NewPolicyCommand(root))

	return cmd
}

// build loads the configuration and wires a runtime.
func (o *RootOptions) build() (*Runtime, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	return Build(cfg, o.runtime...)
}

package cli

import (
	"github.com/spf13/cobra"

	"xselect/internal/config"
)

func newDefaultsCmd(opts *options) *cobra.Command {
	var builtin bool

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the effective default settings as TOML",
		Long: `Print the default settings every picker starts from, as TOML.

The output can be saved as .xselect.toml and edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := config.DefaultDefaults()
			if !builtin {
				var err error
				if d, err = loadDefaults(opts.defaults); err != nil {
					return err
				}
			}
			return config.EncodeDefaults(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "Ignore defaults files and print the built-in values")

	return cmd
}

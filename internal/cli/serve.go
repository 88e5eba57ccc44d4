package cli

import (
	"io"

	"github.com/specialistvlad/stepflow/internal/app"
	"github.com/specialistvlad/stepflow/internal/config"
	"github.com/spf13/cobra"
)

func newServeCommand(g *globalFlags, logW io.Writer) *cobra.Command {
	var (
		configPath string
		address    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API, the execution service and the status stream.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.logger(cmd.Context(), logW)
			cfg, err := config.Load(ctx, configPath)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			overrides := config.Overrides{Address: address, LogLevel: g.logLevel, LogFormat: g.logFormat}
			if err := overrides.Apply(cfg); err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}

			a, err := app.NewApp(logW, cfg)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to an HCL configuration file.")
	cmd.Flags().StringVar(&address, "address", "", "Listen address, overrides server.address.")
	return cmd
}

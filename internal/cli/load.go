package cli

import (
	"errors"
	"io"
	"os"

	"github.com/specialistvlad/stepflow/internal/client"
	"github.com/specialistvlad/stepflow/internal/definition"
	"github.com/specialistvlad/stepflow/internal/store"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/spf13/cobra"
)

func newLoadCommand(g *globalFlags, logW io.Writer) *cobra.Command {
	var (
		output   string
		format   string
		defaults bool
	)
	cmd := &cobra.Command{
		Use:   "load [NAME]",
		Short: "Fetch a stored workflow and print or write its definition.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.logger(cmd.Context(), logW)
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			p := client.NewPersistence(g.server, g.timeout)
			defer p.Close()
			wf, err := p.Load(ctx, name)
			if errors.Is(err, store.ErrNotFound) {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			if err != nil {
				return err
			}
			if defaults {
				wf = workflow.WithDefaultNodes(wf)
			}

			if output != "" && format == "" {
				return definition.WriteFile(output, wf)
			}
			f := definition.FormatHCL
			if format != "" {
				if f, err = definition.ParseFormat(format); err != nil {
					return usageError("%v", err)
				}
			}
			data, err := definition.Encode(wf, f)
			if err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the definition to this file; the format follows its extension.")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Definition format: hcl, yaml or json.")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Add the structural start and end nodes when missing.")
	return cmd
}

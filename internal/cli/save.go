package cli

import (
	"fmt"
	"io"

	"github.com/specialistvlad/stepflow/internal/client"
	"github.com/specialistvlad/stepflow/internal/definition"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/spf13/cobra"
)

func newSaveCommand(g *globalFlags, logW io.Writer) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save FILE...",
		Short: "Store workflow definitions on the server.",
		Long: `Read workflow definitions from files or directories and store each of them on
the server under its name. --name restricts the upload to one workflow.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.logger(cmd.Context(), logW)
			wfs, err := definition.Load(ctx, args...)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			if name != "" {
				wf, err := selectWorkflow(wfs, name, "the given files")
				if err != nil {
					return err
				}
				wfs = []workflow.Workflow{wf}
			}
			if len(wfs) == 0 {
				return usageError("no workflow definitions found")
			}

			p := client.NewPersistence(g.server, g.timeout)
			defer p.Close()
			for _, wf := range wfs {
				id, err := p.Save(ctx, wf)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s)\n", wf.Name, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Store only the workflow with this name.")
	return cmd
}

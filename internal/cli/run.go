package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/specialistvlad/stepflow/internal/client"
	"github.com/specialistvlad/stepflow/internal/definition"
	"github.com/specialistvlad/stepflow/internal/engine"
	"github.com/specialistvlad/stepflow/internal/execution"
	"github.com/specialistvlad/stepflow/internal/status"
	"github.com/specialistvlad/stepflow/internal/workflow"
	"github.com/spf13/cobra"
)

type runFlags struct {
	name          string
	endpoint      string
	mergeDefaults bool
	stepDelay     time.Duration
	taskInput     string
}

func newRunCommand(g *globalFlags, logW io.Writer) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Execute a workflow from a definition file or from the server.",
		Long: `Execute a workflow. With FILE the workflow is read from a .hcl, .yaml or .json
definition; otherwise --name is loaded from --server.

Nodes run in-process with the built-in handlers unless --endpoint names a
remote execution service.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.logger(cmd.Context(), logW)
			wf, err := resolveWorkflow(ctx, g, f, args)
			if err != nil {
				return err
			}
			if f.mergeDefaults {
				wf = workflow.WithDefaultNodes(wf)
			}

			var exec engine.Executor = execution.NewDefaultRegistry()
			if f.endpoint != "" {
				remote := client.NewExecution(f.endpoint, g.timeout)
				defer remote.Close()
				exec = remote
			}
			opts := []engine.Option{engine.WithStepDelay(f.stepDelay)}
			if f.taskInput != "" {
				opts = append(opts, engine.WithTaskInput(f.taskInput))
			}

			summary, runErr := engine.New(exec, status.LogObserver{}, opts...).Run(ctx, wf)
			printSummary(cmd.OutOrStdout(), summary)
			return runExitError(summary, runErr)
		},
	}
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Workflow name: selects one workflow of a multi-workflow file, or the stored workflow to load.")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "Base URL of a remote execution service.")
	cmd.Flags().BoolVar(&f.mergeDefaults, "merge-defaults", false, "Add the structural start and end nodes when missing.")
	cmd.Flags().DurationVar(&f.stepDelay, "step-delay", 0, "Pause between nodes.")
	cmd.Flags().StringVar(&f.taskInput, "task-input", "", "Task input forwarded to every node.")
	return cmd
}

func resolveWorkflow(ctx context.Context, g *globalFlags, f *runFlags, args []string) (workflow.Workflow, error) {
	if len(args) == 0 {
		if f.name == "" {
			return workflow.Workflow{}, usageError("either FILE or --name is required")
		}
		p := client.NewPersistence(g.server, g.timeout)
		defer p.Close()
		wf, err := p.Load(ctx, f.name)
		if err != nil {
			return workflow.Workflow{}, err
		}
		return wf, nil
	}
	wfs, err := definition.ReadFile(args[0])
	if err != nil {
		return workflow.Workflow{}, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return selectWorkflow(wfs, f.name, args[0])
}

func selectWorkflow(wfs []workflow.Workflow, name, source string) (workflow.Workflow, error) {
	if name == "" {
		switch len(wfs) {
		case 0:
			return workflow.Workflow{}, usageError("%s defines no workflow", source)
		case 1:
			return wfs[0], nil
		default:
			return workflow.Workflow{}, usageError("%s defines %d workflows, select one with --name", source, len(wfs))
		}
	}
	for _, wf := range wfs {
		if wf.Name == name {
			return wf, nil
		}
	}
	return workflow.Workflow{}, usageError("workflow %q not found in %s", name, source)
}

func printSummary(w io.Writer, s *engine.Summary) {
	fmt.Fprintf(w, "Run %s of %q: %s", s.RunID, s.Workflow, s.State)
	if s.Reason != "" {
		fmt.Fprintf(w, " (%s)", s.Reason)
	}
	fmt.Fprintln(w)
	for _, st := range s.Steps {
		if st.Failed() {
			fmt.Fprintf(w, "  ✘ %-16s %s\n", st.NodeID, st.Error)
			continue
		}
		fmt.Fprintf(w, "  ✔ %-16s %v\n", st.NodeID, st.Result["result"])
	}
}

func runExitError(s *engine.Summary, runErr error) error {
	switch {
	case engine.NotStarted(runErr):
		return &ExitError{Code: ExitNotStarted, Message: runErr.Error()}
	case runErr != nil:
		return &ExitError{Code: ExitFailure, Message: runErr.Error()}
	}
	if failed := s.Failures(); len(failed) > 0 {
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("%d of %d nodes failed: %v", len(failed), len(s.Steps), joinFirst(s.Err())),
		}
	}
	return nil
}

// joinFirst returns the first error of a joined error, or err itself.
func joinFirst(err error) error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := j.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return err
}

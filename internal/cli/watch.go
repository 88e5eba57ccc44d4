package cli

import (
	"io"
	"strings"

	"github.com/specialistvlad/stepflow/internal/broadcast"
	"github.com/specialistvlad/stepflow/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCommand(g *globalFlags, logW io.Writer) *cobra.Command {
	opts := watch.Options{}
	var path string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live node status from the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.logger(cmd.Context(), logW)
			opts.URL = strings.TrimSuffix(g.server, "/") + "/" + strings.TrimPrefix(path, "/")
			return watch.Subscribe(ctx, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&path, "path", broadcast.DefaultPath, "socket.io path on the server.")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Only show events of this run.")
	cmd.Flags().BoolVar(&opts.InsecureSkipVerify, "insecure", false, "Skip TLS certificate verification.")
	cmd.Flags().DurationVar(&opts.ConnectTimeout, "connect-timeout", watch.DefaultConnectTimeout, "Timeout for the initial connection.")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgcompare/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a comparison workspace over a local HTTP API",
		Long: `Serve starts a local HTTP API over one comparison workspace, with a
websocket event stream at /api/events for selection, panel and
notification updates. It runs until interrupted.`,
		Example: `  pkgcompare serve
  pkgcompare serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ServeAddr
			}

			ws, err := c.newWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			srv := server.New(ws, c.Logger)
			printInfo(cmd.ErrOrStderr(), "Serving comparison API")
			printKeyValue(cmd.ErrOrStderr(), "API", "http://"+addr+"/api")
			printKeyValue(cmd.ErrOrStderr(), "Events", "ws://"+addr+"/api/events")
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")

	return cmd
}

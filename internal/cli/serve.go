package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tradecoach/internal/performance"
	httpapi "tradecoach/internal/transport/http"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Serve the JSON API:

  GET    /health
  POST   /api/analyses        (?save=false to skip the journal)
  GET    /api/trades          (?symbol= &method= &result= &emotion= &limit=)
  GET    /api/trades/:id
  DELETE /api/trades/:id
  GET    /api/report          (?period=daily|weekly|monthly|all)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := app.Config.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			if debug, _ := cmd.Flags().GetBool("debug"); !debug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := httpapi.NewServer(httpapi.ServerConfig{
				Addr:    addr,
				Journal: app.Journal,
				Health:  app.Health,
				Limiter: performance.NewRateLimiter(app.Config.Server.RatePerSec, app.Config.Server.Burst),
				Logger:  app.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output := NewOutput(cmd)
			if !output.IsJSON() {
				output.Info("tradecoach API listening on %s", srv.Addr())
				if !app.Analyzer.HasModel() {
					output.Warning("No OpenAI key configured: analyses use the offline coaching rules")
				}
			}
			return srv.Start(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address (overrides server.addr)")
	return cmd
}

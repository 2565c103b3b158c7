package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/config"
	"github.com/kitbuilder587/tavily-go/internal/ratelimit"
	"github.com/kitbuilder587/tavily-go/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		noHybrid bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			c, err := a.buildServeComponents(cmd, noHybrid)
			if err != nil {
				return err
			}
			defer c.Close()

			if a.cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			deps := server.Deps{
				Tavily:           c.tavily,
				Search:           c.search,
				Hybrid:           c.hybrid,
				Gatherer:         c.registry,
				Logger:           a.logger,
				CORSOrigins:      a.cfg.HTTP.CORSOrigins,
				HybridMaxResults: a.cfg.Hybrid.MaxResults,
			}
			if a.cfg.HTTP.RequestsPerMinute > 0 {
				deps.Limiter = ratelimit.New(ratelimit.Config{
					RequestsPerMinute: a.cfg.HTTP.RequestsPerMinute,
					Burst:             a.cfg.HTTP.RequestsPerMinute,
				})
			}

			return server.New(deps).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	cmd.Flags().BoolVar(&noHybrid, "no-hybrid", false, "serve without the hybrid endpoint")
	return cmd
}

// buildServeComponents: без DATABASE_URL сервер поднимается без /v1/hybrid
func (a *app) buildServeComponents(cmd *cobra.Command, noHybrid bool) (*components, error) {
	if noHybrid {
		return a.buildSearch(cmd.Context())
	}

	c, err := a.buildHybrid(cmd.Context())
	if errors.Is(err, config.ErrMissingDB) {
		a.logger.Warn("DATABASE_URL is not set, hybrid endpoint disabled")
		return a.buildSearch(cmd.Context())
	}
	if err != nil {
		return nil, err
	}

	if err := c.hybrid.ValidateIndex(cmd.Context()); err != nil {
		a.logger.Warn("hybrid index is not valid, run `tavily index ensure`", zap.Error(err))
	}
	return c, nil
}

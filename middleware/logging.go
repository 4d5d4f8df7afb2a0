package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/renatoliveira/chainable/host"
)

// Logging returns middleware that logs link start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, env *host.Envelope, next Handler) error {
		name, variant := "", ""
		if spec, err := env.Current(); err == nil {
			name = spec.Name
			variant = string(spec.Variant)
		}

		logger.Info("link started",
			slog.String("link_name", name),
			slog.String("variant", variant),
			slog.String("chain_id", env.ChainID.String()),
			slog.String("queue", env.Queue),
			slog.Int("position", env.Position),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("link failed",
				slog.String("link_name", name),
				slog.String("chain_id", env.ChainID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("link completed",
				slog.String("link_name", name),
				slog.String("chain_id", env.ChainID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}

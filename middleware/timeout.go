package middleware

import (
	"context"
	"log/slog"

	"github.com/renatoliveira/chainable/host"
)

// Timeout returns middleware that enforces a per-link execution deadline.
// If the current link spec has a non-zero Timeout, a context.WithTimeout
// wraps the handler call. When the deadline is exceeded the context is
// cancelled and the handler should return context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, env *host.Envelope, next Handler) error {
		if spec, err := env.Current(); err == nil && spec.Timeout > 0 {
			logger.Debug("link timeout set",
				slog.String("link_name", spec.Name),
				slog.String("chain_id", env.ChainID.String()),
				slog.Duration("timeout", spec.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}

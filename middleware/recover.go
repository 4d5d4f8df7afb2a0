package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/renatoliveira/chainable/host"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, env *host.Envelope, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				name := ""
				if spec, specErr := env.Current(); specErr == nil {
					name = spec.Name
				}
				logger.Error("link handler panicked",
					slog.String("link_name", name),
					slog.String("chain_id", env.ChainID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in link %s: %v", name, r)
			}
		}()
		return next(ctx)
	}
}

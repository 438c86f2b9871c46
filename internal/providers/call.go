package providers

import (
	"context"
	"log/slog"

	"ludex/internal/logging"
	"ludex/internal/services"
)

// Call routes fn through the dispatcher under the given service tag with the
// standard retry policy. Authentication failures disable the gate so later
// calls short-circuit without touching the network.
func Call(ctx context.Context, dispatcher Dispatcher, gate *Gate, service string, logger *slog.Logger, fn func(context.Context) (any, error)) (any, error) {
	var value any
	retrier := services.NewRetrier()
	err := retrier.Do(ctx, func(ctx context.Context) error {
		result, callErr := dispatcher.Do(ctx, service, fn)
		if callErr != nil {
			return callErr
		}
		value = result
		return nil
	})
	if err != nil && services.IsAuth(err) {
		gate.Disable()
		logger.Warn("authentication failed, provider disabled",
			logging.String("service", service),
			logging.Error(err))
	}
	return value, err
}

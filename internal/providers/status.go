package providers

import (
	"fmt"
	"net/http"

	"ludex/internal/services"
)

// ClassifyStatus maps an HTTP status onto the shared error taxonomy so the
// retry and self-disable logic can classify without string sniffing.
func ClassifyStatus(component string, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, component, "request", fmt.Sprintf("status %d", status), nil)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, component, "request", fmt.Sprintf("status %d", status), nil)
	case status >= 500:
		return services.Wrap(services.ErrTransient, component, "request", fmt.Sprintf("status %d", status), nil)
	default:
		return services.Wrap(services.ErrParse, component, "request", fmt.Sprintf("unexpected status %d", status), nil)
	}
}

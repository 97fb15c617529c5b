package transport

import (
	"fmt"
	"net/http"
	"net/url"
)

// validateOrigin checks the request's Origin header against
// allowedOrigins by scheme+host. Requests with no Origin header
// (non-browser clients) are always allowed through.
func validateOrigin(r *http.Request, allowedOrigins []string) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}
	if len(allowedOrigins) == 0 {
		return nil
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin url: %w", err)
	}

	for _, allowed := range allowedOrigins {
		allowedURL, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
			return nil
		}
	}
	return fmt.Errorf("origin not allowed: %s", origin)
}

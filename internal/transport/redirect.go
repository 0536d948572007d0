package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTooManyRedirects = errors.New("transport: redirect loop detected")
	ErrInsecureRedirect = errors.New("transport: redirect from https to a weaker scheme")
)

// redirectPolicy caps redirect hops and refuses to leave https.
func redirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last URL: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL)
		}
		if len(via) > 0 && via[len(via)-1].URL.Scheme == "https" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: %s", ErrInsecureRedirect, req.URL)
		}
		return nil
	}
}

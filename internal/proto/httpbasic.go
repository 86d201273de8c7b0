package proto

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talon-framework/talon/internal/brute"
)

// HTTPBasicAttempt returns a collaborator that probes a URL with HTTP Basic
// credentials. 401 and 403 are rejections; 2xx/3xx confirm the pair; any
// other status or a transport failure is fatal.
func HTTPBasicAttempt(targetURL string, timeout time.Duration) brute.AttemptFunc {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return func(p brute.Pair) error {
		req, err := http.NewRequest(http.MethodGet, targetURL, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.SetBasicAuth(p.User, p.Password)

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("http %s: %w", targetURL, err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%s: %w", p.User, brute.ErrRejected)
		case resp.StatusCode >= 200 && resp.StatusCode < 400:
			return nil
		default:
			return fmt.Errorf("http: unexpected status %s", resp.Status)
		}
	}
}

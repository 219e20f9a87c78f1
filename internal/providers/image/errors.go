package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"promptpix/internal/domain"
)

const maxErrorBody = 2048

func unconfigured(provider, message string) error {
	return domain.Classify(domain.KindUnknown, 0, provider, message, domain.ErrUnconfigured)
}

// transportError classifies a failed round trip as timeout or network.
func transportError(provider string, err error) error {
	kind := domain.KindNetwork
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		kind = domain.KindTimeout
	}
	return domain.Classify(kind, 0, provider, "request failed", err)
}

// statusError classifies any non-success HTTP response as server_error with
// the status attached.
func statusError(provider, label string, resp *http.Response) error {
	return domain.Classify(domain.KindServerError, resp.StatusCode, provider,
		fmt.Sprintf("%s error: %d", label, resp.StatusCode), nil)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// drainBody reads a bounded prefix of an error body for logging.
func drainBody(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return strings.TrimSpace(string(raw))
}

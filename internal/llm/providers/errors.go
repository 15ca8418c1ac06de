package providers

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/reqflow/engine/internal/llm"
)

// classifyError maps a langchaingo SDK error onto the Gateway's retry
// taxonomy: connection-level failures become NetworkError, upstream 5xx
// responses become ServerError, everything else is left opaque (and
// therefore not retried).
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &llm.NetworkError{Cause: err}
	}
	if status, ok := httpStatus(err); ok && status >= 500 {
		return &llm.ServerError{StatusCode: status, Cause: err}
	}
	return err
}

// httpStatus best-effort scrapes an HTTP status code out of an SDK error
// string; langchaingo's provider clients don't expose one structurally.
func httpStatus(err error) (int, bool) {
	msg := err.Error()
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return atoiMust(code), true
		}
	}
	return 0, false
}

func atoiMust(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

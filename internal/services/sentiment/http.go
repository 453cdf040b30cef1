package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	domsvc "EventPulse/internal/domain/service"
	xhttp "EventPulse/pkg/http"
)

// HTTPClassifier calls an external sentiment service that accepts
// {"text": "..."} and answers {"label": "..."}.
type HTTPClassifier struct {
	baseURL  string
	client   *xhttp.Client
	attempts uint
}

func NewHTTPClassifier(baseURL string, timeout time.Duration, attempts int) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPClassifier{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: uint(attempts),
	}
}

var _ domsvc.SentimentClassifier = (*HTTPClassifier)(nil)

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

func (h *HTTPClassifier) Classify(ctx context.Context, text string) (string, error) {
	if h.baseURL == "" {
		return "", fmt.Errorf("sentiment http client not initialized")
	}
	res, err := backoff.Retry(ctx, func() (classifyResponse, error) {
		var out classifyResponse
		err := h.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     h.baseURL + "/classify",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    classifyRequest{Text: text},
		}, &out)
		if err != nil && !retryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithBackOff(newBackOff()), backoff.WithMaxTries(h.attempts))
	if err != nil {
		return "", fmt.Errorf("post /classify: %w", err)
	}

	label, ok := domsvc.NormalizeSentiment(res.Label)
	if !ok {
		return "", fmt.Errorf("sentiment service: unexpected label %q", res.Label)
	}
	return label, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}

// retryable treats transport failures, 429 and 5xx as transient.
func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

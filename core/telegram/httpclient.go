package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	dialTimeout    = 5 * time.Second
	requestTimeout = 20 * time.Second
	dialRetries    = 2
	dialBackoff    = 500 * time.Millisecond
)

// BuildHTTPClient returns the client the bot uses for Bot API calls. Its
// timeout leaves room for a long poll of pollTimeout on top of a normal
// request.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   requestTimeout + max(pollTimeout, 0),
		Transport: &dialRetryTransport{base: transport, retries: dialRetries, backoff: dialBackoff},
	}
}

// dialRetryTransport repeats a request only when the connection could not
// be opened. Anything later may have reached Telegram, and repeating a
// sendMessage would deliver it twice; the sender dispatcher decides those.
type dialRetryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *dialRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				return nil, errors.New("telegram: request body cannot be replayed")
			}
			r = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				r.Body = body
			}
		}
		resp, err := t.base.RoundTrip(r)
		if err == nil || attempt >= t.retries || !isDialError(err) {
			return resp, err
		}
		timer := time.NewTimer(t.backoff * time.Duration(attempt+1))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

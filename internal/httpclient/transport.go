package httpclient

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"runtime/debug"
	"strings"
	"time"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/metrics"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Logging logs method, route, status and duration of every round trip and feeds m.
func Logging(log *zap.Logger, m *metrics.Metrics, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		res, err := next.RoundTrip(r)
		dur := time.Since(start)
		route := Route(r.URL.Path)

		status := 0
		if res != nil {
			status = res.StatusCode
		}
		m.ObserveRequest(r.Method, route, status, dur)

		// metadata only: no bodies, no headers
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("dur", dur),
		}
		if err != nil {
			log.Warn("http", append(fields, zap.Error(err))...)
		} else {
			log.Debug("http", fields...)
		}
		return res, err
	})
}

// Recover converts a panic inside the transport into an ErrNetwork failure.
func Recover(log *zap.Logger, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (res *http.Response, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic",
					zap.Any("reason", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("route", Route(r.URL.Path)),
				)
				res = nil
				err = fmt.Errorf("%w: transport panic", errs.ErrNetwork)
			}
		}()
		return next.RoundTrip(r)
	})
}

// Route collapses id segments so metric labels stay bounded:
// "/api/Cart/items/7f0c…" -> "/api/Cart/items/{id}".
func Route(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := uuid.FromString(p); err == nil || isNumeric(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// NewHTTPClient builds the transport stack: cookie jar (the refresh cookie travels with
// credentials), optional insecure TLS for a local dev backend, Recover(Logging(base)).
func NewHTTPClient(timeout time.Duration, insecureTLS bool, log *zap.Logger, m *metrics.Metrics) *http.Client {
	if log == nil {
		log = zap.NewNop()
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local dev backend with self-signed cert
	}
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: Recover(log, Logging(log, m, base)),
	}
}

package edge

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/observability"
)

// Reason identifies why the edge filter rejected a request.
type Reason string

const (
	ReasonMissingAuthorizationHeader Reason = "MissingAuthorizationHeader"
	ReasonMalformedToken             Reason = "MalformedToken"
	ReasonTokenExpired               Reason = "TokenExpired"
)

const bearerPrefix = "Bearer "

// Request is the subset of an HTTP-like viewer request the filter inspects.
// Header names are lower-cased, matching the CDN function event shape.
type Request struct {
	Method  string            `json:"method"`
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers"`
}

// Response is the terminal rejection returned in place of a forwarded
// request.
type Response struct {
	StatusCode        int    `json:"statusCode"`
	StatusDescription string `json:"statusDescription"`
	Body              string `json:"body"`
}

// Filter is the stateless per-request gate that runs before any origin
// request is served. It validates the Authorization header using only the
// request's own contents; it never performs network I/O, keeps no state
// between invocations, and is safe for concurrent use.
type Filter struct {
	codec *auth.Codec
}

// NewFilter creates an edge filter over the given codec.
func NewFilter(codec *auth.Codec) *Filter {
	return &Filter{codec: codec}
}

// Check validates an Authorization header value. On success ok is true; on
// failure it reports the rejection reason.
func (f *Filter) Check(authorization string) (Reason, bool) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return ReasonMissingAuthorizationHeader, false
	}

	token := authorization[len(bearerPrefix):]
	if _, err := f.codec.Decode(token); err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return ReasonTokenExpired, false
		}
		return ReasonMalformedToken, false
	}

	return "", true
}

// ViewerRequest applies the filter to a viewer request, mirroring the CDN
// edge-function hook: it returns either the request to forward, unchanged,
// or a terminal 403 response. Claims are deliberately not injected into the
// forwarded request; downstream authorization re-validates independently.
func (f *Filter) ViewerRequest(req Request) (Request, *Response) {
	if reason, ok := f.Check(req.Headers["authorization"]); !ok {
		return Request{}, reject(reason)
	}
	return req, nil
}

func reject(reason Reason) *Response {
	return &Response{
		StatusCode:        http.StatusForbidden,
		StatusDescription: "Forbidden",
		Body:              string(reason),
	}
}

// Middleware wraps an HTTP handler with the edge filter. Rejections are
// written as 403 with the reason string as the body, matching the viewer
// response contract; accepted requests pass through unmodified.
type Middleware struct {
	filter  *Filter
	logger  *observability.Logger
	metrics *observability.Metrics
	sink    audit.Sink
}

// NewMiddleware creates edge middleware. logger, metrics and sink may be
// nil; a nil sink discards rejection events.
func NewMiddleware(filter *Filter, logger *observability.Logger, metrics *observability.Metrics, sink audit.Sink) *Middleware {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Middleware{
		filter:  filter,
		logger:  logger,
		metrics: metrics,
		sink:    sink,
	}
}

// Handler gates the next handler behind the edge filter.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason, ok := m.filter.Check(r.Header.Get("Authorization"))
		if !ok {
			if m.logger != nil {
				m.logger.WithFields(map[string]interface{}{
					"reason": string(reason),
					"path":   r.URL.Path,
				}).Warn("edge filter rejected request")
			}
			if m.metrics != nil {
				m.metrics.EdgeRequestsTotal.WithLabelValues("reject", string(reason)).Inc()
			}
			event := audit.NewEvent(audit.EventEdgeRequestRejected)
			event.Reason = string(reason)
			event.Metadata = map[string]interface{}{"path": r.URL.Path}
			m.sink.Record(r.Context(), event)
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(reason))
			return
		}

		if m.metrics != nil {
			m.metrics.EdgeRequestsTotal.WithLabelValues("forward", "").Inc()
		}
		next.ServeHTTP(w, r)
	})
}

// Package cors implements the cross-origin negotiation for the token
// endpoints: typed extractors for the CORS request headers, the
// preflight decision against a configured allow-list, and the header
// set written onto responses.
package cors

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request header names evaluated during CORS negotiation.
const (
	OriginHeader         = "Origin"
	RequestMethodHeader  = "Access-Control-Request-Method"
	RequestHeadersHeader = "Access-Control-Request-Headers"
)

// Response header names emitted by Decoration.WriteHeaders.
const (
	AllowOriginHeader      = "Access-Control-Allow-Origin"
	AllowCredentialsHeader = "Access-Control-Allow-Credentials"
	ExposeHeadersHeader    = "Access-Control-Expose-Headers"
	AllowMethodsHeader     = "Access-Control-Allow-Methods"
	AllowHeadersHeader     = "Access-Control-Allow-Headers"
	MaxAgeHeader           = "Access-Control-Max-Age"
)

var (
	ErrMissingOrigin         = errors.New("the request header `Origin` is required but is missing")
	ErrMissingRequestMethod  = errors.New("the request header `Access-Control-Request-Method` is required but is missing")
	ErrMissingRequestHeaders = errors.New("the request header `Access-Control-Request-Headers` is required but is missing")
	ErrOriginNotAllowed      = errors.New("origin is not allowed to request")
	ErrMethodNotAllowed      = errors.New("method is not allowed")
	ErrHeadersNotAllowed     = errors.New("headers are not allowed")
)

// BadOriginError reports an `Origin` header value that does not parse
// as an absolute URL.
type BadOriginError struct {
	cause error
}

func (e *BadOriginError) Error() string {
	return "the request header `Origin` contains an invalid URL: " + e.cause.Error()
}

func (e *BadOriginError) Unwrap() error {
	return e.cause
}

// BadRequestMethodError reports an `Access-Control-Request-Method`
// value that is not a recognized HTTP method token.
type BadRequestMethodError struct {
	Method string
}

func (e *BadRequestMethodError) Error() string {
	return fmt.Sprintf("the request header `Access-Control-Request-Method` has an invalid value %q", e.Method)
}

// HTTPStatus maps a CORS error to its response status: policy
// violations are 403, missing or malformed request headers are 400.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrOriginNotAllowed),
		errors.Is(err, ErrMethodNotAllowed),
		errors.Is(err, ErrHeadersNotAllowed):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Origin is the parsed value of the `Origin` request header.
type Origin struct {
	url *url.URL
}

// ParseOrigin parses raw as an absolute URL.
func ParseOrigin(raw string) (Origin, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Origin{}, &BadOriginError{cause: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return Origin{}, &BadOriginError{cause: fmt.Errorf("%q is not an absolute URL", raw)}
	}
	return Origin{url: u}, nil
}

// OriginFromRequest extracts and parses the `Origin` header.
func OriginFromRequest(r *http.Request) (Origin, error) {
	raw := r.Header.Get(OriginHeader)
	if raw == "" {
		return Origin{}, ErrMissingOrigin
	}
	return ParseOrigin(raw)
}

func (o Origin) String() string {
	return o.url.String()
}

// Normalize reduces the origin to its scheme+host+port triple,
// serialized as "scheme://host[:port]/". Path and query are dropped so
// that allow-list matching only considers the actual origin.
func (o Origin) Normalize() string {
	return o.url.Scheme + "://" + strings.ToLower(o.url.Host) + "/"
}

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// ParseRequestMethod validates a declared request method token. Input
// is case-insensitive; the canonical uppercase form is returned.
func ParseRequestMethod(raw string) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := knownMethods[method]; !ok {
		return "", &BadRequestMethodError{Method: raw}
	}
	return method, nil
}

// RequestMethodFromRequest extracts and validates the
// `Access-Control-Request-Method` header.
func RequestMethodFromRequest(r *http.Request) (string, error) {
	raw := r.Header.Get(RequestMethodHeader)
	if raw == "" {
		return "", ErrMissingRequestMethod
	}
	return ParseRequestMethod(raw)
}

// ParseRequestHeaders splits a comma-separated header-name list,
// trimming each token and preserving its spelling and order. An empty
// or blank value yields an empty set; parsing never fails.
func ParseRequestHeaders(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	headers := make([]string, 0, len(parts))
	for _, part := range parts {
		if h := strings.TrimSpace(part); h != "" {
			headers = append(headers, h)
		}
	}
	return headers
}

// RequestHeadersFromRequest extracts the
// `Access-Control-Request-Headers` header. It fails only when the
// header is entirely absent; a present-but-empty value is an empty set.
func RequestHeadersFromRequest(r *http.Request) ([]string, error) {
	if _, ok := r.Header[RequestHeadersHeader]; !ok {
		return nil, ErrMissingRequestHeaders
	}
	return ParseRequestHeaders(r.Header.Get(RequestHeadersHeader)), nil
}

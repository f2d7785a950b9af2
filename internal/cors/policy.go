package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AllowedOrigins is the configured origin allow-list: either every
// origin (wildcard) or an explicit set. The two variants are mutually
// exclusive; the zero value allows all origins.
type AllowedOrigins struct {
	all     bool
	origins []Origin
}

// AllowAll returns the wildcard allow-list.
func AllowAll() AllowedOrigins {
	return AllowedOrigins{all: true}
}

// AllowSome returns an allow-list restricted to the given origins.
func AllowSome(origins ...Origin) AllowedOrigins {
	return AllowedOrigins{origins: origins}
}

// All reports whether the allow-list is the wildcard variant. An empty
// explicit set counts as wildcard so the zero value stays permissive,
// matching the configuration default.
func (a AllowedOrigins) All() bool {
	return a.all || len(a.origins) == 0
}

// Options hold the server-side CORS policy for a route group.
// AllowedMethods and AllowedHeaders only constrain preflight requests.
type Options struct {
	AllowedOrigins   AllowedOrigins
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	ExposeHeaders    []string
	MaxAge           time.Duration
}

// Decoration is the CORS header set computed for a single response.
type Decoration struct {
	AllowOrigin      string
	AllowCredentials bool
	ExposeHeaders    []string
	AllowMethods     []string
	AllowHeaders     []string
	MaxAge           time.Duration
}

// Preflight decides whether the declared origin/method/headers
// combination is admissible and, if so, returns the header set for the
// preflight response. headers may be nil or empty; only a non-empty
// set is checked against the allow-list.
func (o *Options) Preflight(origin Origin, method string, headers []string) (*Decoration, error) {
	d, err := o.matchOrigin(origin)
	if err != nil {
		return nil, err
	}

	if !containsFold(o.AllowedMethods, method) {
		return nil, ErrMethodNotAllowed
	}
	d.AllowMethods = o.AllowedMethods

	for _, h := range headers {
		if !containsFold(o.AllowedHeaders, h) {
			return nil, ErrHeadersNotAllowed
		}
	}
	d.AllowHeaders = o.AllowedHeaders

	return d, nil
}

// Decorate computes the header set for an actual (non-preflight)
// response. Only the origin rule applies; method and header
// allow-lists do not constrain actual responses.
func (o *Options) Decorate(origin Origin) (*Decoration, error) {
	return o.matchOrigin(origin)
}

func (o *Options) matchOrigin(origin Origin) (*Decoration, error) {
	d := &Decoration{
		AllowCredentials: o.AllowCredentials,
		ExposeHeaders:    o.ExposeHeaders,
		MaxAge:           o.MaxAge,
	}

	if o.AllowedOrigins.All() {
		d.AllowOrigin = "*"
		return d, nil
	}

	requested := origin.Normalize()
	for _, allowed := range o.AllowedOrigins.origins {
		if allowed.Normalize() == requested {
			// always the single matched origin, never a list
			d.AllowOrigin = requested
			return d, nil
		}
	}
	return nil, ErrOriginNotAllowed
}

// WriteHeaders emits the decoration onto h. Allow-origin and
// allow-credentials are always written; the remaining headers only
// when their values are non-empty, each serialized as a comma+space
// joined list in insertion order.
func (d *Decoration) WriteHeaders(h http.Header) {
	h.Set(AllowOriginHeader, d.AllowOrigin)
	h.Set(AllowCredentialsHeader, strconv.FormatBool(d.AllowCredentials))

	if len(d.ExposeHeaders) > 0 {
		h.Set(ExposeHeadersHeader, strings.Join(d.ExposeHeaders, ", "))
	}
	if len(d.AllowMethods) > 0 {
		h.Set(AllowMethodsHeader, strings.Join(d.AllowMethods, ", "))
	}
	if len(d.AllowHeaders) > 0 {
		h.Set(AllowHeadersHeader, strings.Join(d.AllowHeaders, ", "))
	}
	if d.MaxAge > 0 {
		h.Set(MaxAgeHeader, strconv.FormatInt(int64(d.MaxAge/time.Second), 10))
	}
}

// Header names (and methods, by convention already uppercased on the
// request side) are matched case-insensitively.
func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

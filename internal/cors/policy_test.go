package cors

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mustOrigin(t *testing.T, raw string) Origin {
	t.Helper()
	o, err := ParseOrigin(raw)
	if err != nil {
		t.Fatalf("ParseOrigin(%q): %v", raw, err)
	}
	return o
}

func TestOptions_Preflight(t *testing.T) {
	explicit := func(t *testing.T) Options {
		return Options{
			AllowedOrigins: AllowSome(
				mustOrigin(t, "https://www.acme.com"),
				mustOrigin(t, "https://www.example.com"),
			),
			AllowedMethods: []string{"GET"},
			AllowedHeaders: []string{"Authorization"},
		}
	}

	t.Run("wildcard allows any origin", func(t *testing.T) {
		opts := Options{
			AllowedOrigins: AllowAll(),
			AllowedMethods: []string{"GET"},
			AllowedHeaders: []string{"Authorization"},
		}
		d, err := opts.Preflight(mustOrigin(t, "https://anything.test"), "GET", nil)
		if err != nil {
			t.Fatalf("Preflight() unexpected error: %v", err)
		}
		if d.AllowOrigin != "*" {
			t.Errorf("AllowOrigin = %q, want %q", d.AllowOrigin, "*")
		}
	})

	t.Run("matched origin is echoed normalized", func(t *testing.T) {
		opts := explicit(t)
		d, err := opts.Preflight(mustOrigin(t, "https://www.acme.com/some/path"), "GET", nil)
		if err != nil {
			t.Fatalf("Preflight() unexpected error: %v", err)
		}
		if d.AllowOrigin != "https://www.acme.com/" {
			t.Errorf("AllowOrigin = %q, want %q", d.AllowOrigin, "https://www.acme.com/")
		}
	})

	t.Run("unlisted origin is rejected", func(t *testing.T) {
		opts := explicit(t)
		_, err := opts.Preflight(mustOrigin(t, "https://evil.test"), "GET", nil)
		if !errors.Is(err, ErrOriginNotAllowed) {
			t.Errorf("Preflight() error = %v, want ErrOriginNotAllowed", err)
		}
	})

	t.Run("disallowed method is rejected", func(t *testing.T) {
		opts := explicit(t)
		_, err := opts.Preflight(mustOrigin(t, "https://www.acme.com"), "DELETE", nil)
		if !errors.Is(err, ErrMethodNotAllowed) {
			t.Errorf("Preflight() error = %v, want ErrMethodNotAllowed", err)
		}
	})

	t.Run("headers must be a subset", func(t *testing.T) {
		opts := explicit(t)
		_, err := opts.Preflight(mustOrigin(t, "https://www.acme.com"), "GET",
			[]string{"Authorization", "X-Custom"})
		if !errors.Is(err, ErrHeadersNotAllowed) {
			t.Errorf("Preflight() error = %v, want ErrHeadersNotAllowed", err)
		}
	})

	t.Run("header matching is case-insensitive", func(t *testing.T) {
		opts := explicit(t)
		d, err := opts.Preflight(mustOrigin(t, "https://www.acme.com"), "GET",
			[]string{"authorization"})
		if err != nil {
			t.Fatalf("Preflight() unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"Authorization"}, d.AllowHeaders); diff != "" {
			t.Errorf("AllowHeaders mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty header set always passes", func(t *testing.T) {
		opts := explicit(t)
		opts.AllowedHeaders = nil
		if _, err := opts.Preflight(mustOrigin(t, "https://www.acme.com"), "GET", nil); err != nil {
			t.Errorf("Preflight() unexpected error: %v", err)
		}
	})
}

func TestOptions_Decorate(t *testing.T) {
	opts := Options{
		AllowedOrigins: AllowSome(mustOrigin(t, "https://www.acme.com")),
		// methods and headers constrain preflights only
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Authorization"},
	}

	d, err := opts.Decorate(mustOrigin(t, "https://www.acme.com"))
	if err != nil {
		t.Fatalf("Decorate() unexpected error: %v", err)
	}
	if len(d.AllowMethods) != 0 || len(d.AllowHeaders) != 0 {
		t.Errorf("Decorate() carried preflight-only headers: methods=%v headers=%v",
			d.AllowMethods, d.AllowHeaders)
	}

	if _, err := opts.Decorate(mustOrigin(t, "https://other.test")); !errors.Is(err, ErrOriginNotAllowed) {
		t.Errorf("Decorate() error = %v, want ErrOriginNotAllowed", err)
	}
}

func TestDecoration_WriteHeaders(t *testing.T) {
	tests := []struct {
		name       string
		decoration Decoration
		want       map[string]string
		wantAbsent []string
	}{
		{
			name: "minimal decoration",
			decoration: Decoration{
				AllowOrigin: "*",
			},
			want: map[string]string{
				AllowOriginHeader:      "*",
				AllowCredentialsHeader: "false",
			},
			wantAbsent: []string{
				ExposeHeadersHeader, AllowMethodsHeader, AllowHeadersHeader, MaxAgeHeader,
			},
		},
		{
			name: "full decoration",
			decoration: Decoration{
				AllowOrigin:      "https://www.acme.com/",
				AllowCredentials: true,
				ExposeHeaders:    []string{"X-One", "X-Two"},
				AllowMethods:     []string{"GET", "POST"},
				AllowHeaders:     []string{"Authorization", "Accept"},
				MaxAge:           42 * time.Second,
			},
			want: map[string]string{
				AllowOriginHeader:      "https://www.acme.com/",
				AllowCredentialsHeader: "true",
				ExposeHeadersHeader:    "X-One, X-Two",
				AllowMethodsHeader:     "GET, POST",
				AllowHeadersHeader:     "Authorization, Accept",
				MaxAgeHeader:           "42",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			tt.decoration.WriteHeaders(h)
			for name, want := range tt.want {
				if got := h.Get(name); got != want {
					t.Errorf("header %s = %q, want %q", name, got, want)
				}
			}
			for _, name := range tt.wantAbsent {
				if _, ok := h[name]; ok {
					t.Errorf("header %s should be absent, got %q", name, h.Get(name))
				}
			}
		})
	}
}

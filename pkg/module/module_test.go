package module_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/certify/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"empty", ""},
		{"no leading slash", "api"},
		{"nested path", "/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected panic for invalid prefix")
				}
			}()
			module.New(tt.prefix, http.NewServeMux())
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantPath string
	}{
		{"nested", "/api/categories/abc/scores", "/categories/abc/scores"},
		{"root", "/api", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received string
			mux := http.NewServeMux()
			mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
				received = r.URL.Path
			})

			module.New("/api", mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.path, nil))

			if received != tt.wantPath {
				t.Errorf("inner path: got %s, want %s", received, tt.wantPath)
			}
		})
	}
}

func TestModuleMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	m := module.New("/api", mux)
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	})

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/api", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestRouterDispatch(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api"))
	})

	notify := http.NewServeMux()
	notify.HandleFunc("GET /stream", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stream"))
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", api))
	router.Mount(module.New("/notifications", notify))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		wantBody string
	}{
		{"api module", "/api/events", "api"},
		{"trailing slash", "/api/events/", "api"},
		{"notifications module", "/notifications/stream", "stream"},
		{"native fallback", "/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rec.Code)
			}
			if body := rec.Body.String(); body != tt.wantBody {
				t.Errorf("body: got %s, want %s", body, tt.wantBody)
			}
		})
	}

	if got := router.Prefixes(); !slices.Equal(got, []string{"/api", "/notifications"}) {
		t.Errorf("prefixes: got %v", got)
	}
}

func TestModuleUseOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	m := module.New("/api", mux)
	m.Use(tag("recover"), tag("logger"))
	m.Use(tag("auth"))

	for range 2 {
		order = nil
		m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/events", nil))

		want := []string{"recover", "logger", "auth", "handler"}
		if !slices.Equal(order, want) {
			t.Errorf("order: got %v, want %v", order, want)
		}
	}
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	kcg "github.com/foodgram/edge/pkg/configs/gateway"
	"github.com/foodgram/edge/pkg/routes"
	"github.com/foodgram/edge/pkg/utils/try"
)

type assetRoots struct {
	static string
	media  string
	docs   string
}

// newAssets lays out the three asset stores the gateway serves from.
func newAssets(t *testing.T) assetRoots {
	t.Helper()
	a := assetRoots{
		static: t.TempDir(),
		media:  t.TempDir(),
		docs:   t.TempDir(),
	}

	files := map[string]string{
		filepath.Join(a.static, "index.html"):   "<html>frontend</html>",
		filepath.Join(a.static, "css/app.css"):  "body {}",
		filepath.Join(a.media, "foo.jpg"):       "jpeg-bytes",
		filepath.Join(a.docs, "redoc.html"):     "<html>api docs</html>",
		filepath.Join(a.docs, "openapi-schema"): "schema-body",
	}
	for name, content := range files {
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return a
}

func gatewayFor(t *testing.T, backendURL string, a assetRoots) *echo.Echo {
	t.Helper()
	conf := try.To(kcg.Unmarshal([]byte(
		"backend: \"" + backendURL + "\"\n" +
			"assets:\n" +
			"  static: " + a.static + "\n" +
			"  media: " + a.media + "\n" +
			"  docs: " + a.docs + "\n",
	))).OrFatal(t)

	e := try.To(BuildServer(conf, routes.DefaultTable(conf), "off")).OrFatal(t)
	return e
}

func TestStaticRoutes(t *testing.T) {
	a := newAssets(t)
	e := gatewayFor(t, "http://127.0.0.1:1", a) // backend never hit here

	type When struct {
		Path string
	}

	type Then struct {
		Status int
		Body   string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, when.Path, nil)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != then.Status {
				t.Errorf("unmatch status: (actual, expected) = (%d, %d)", rec.Code, then.Status)
			}
			if then.Body != "" && rec.Body.String() != then.Body {
				t.Errorf("unmatch body: (actual, expected) = (%s, %s)", rec.Body.String(), then.Body)
			}
		}
	}

	t.Run("an existing media file is served as its bytes", theory(
		When{Path: "/media/foo.jpg"},
		Then{Status: http.StatusOK, Body: "jpeg-bytes"},
	))

	t.Run("a missing media file is 404, no fallback", theory(
		When{Path: "/media/missing.jpg"},
		Then{Status: http.StatusNotFound},
	))

	t.Run("api docs root serves redoc.html", theory(
		When{Path: "/api/docs/"},
		Then{Status: http.StatusOK, Body: "<html>api docs</html>"},
	))

	t.Run("an existing docs file is served exactly", theory(
		When{Path: "/api/docs/openapi-schema"},
		Then{Status: http.StatusOK, Body: "schema-body"},
	))

	t.Run("a missing docs file falls back to redoc.html", theory(
		When{Path: "/api/docs/no-such-page"},
		Then{Status: http.StatusOK, Body: "<html>api docs</html>"},
	))

	t.Run("an existing frontend file is served exactly", theory(
		When{Path: "/css/app.css"},
		Then{Status: http.StatusOK, Body: "body {}"},
	))

	t.Run("the root serves the SPA entry point", theory(
		When{Path: "/"},
		Then{Status: http.StatusOK, Body: "<html>frontend</html>"},
	))

	t.Run("an unknown route falls back to the SPA entry point, not 404", theory(
		When{Path: "/unknown/route"},
		Then{Status: http.StatusOK, Body: "<html>frontend</html>"},
	))
}

func TestProxyRoutes(t *testing.T) {
	t.Run("api and admin requests reach the backend with the original Host", func(t *testing.T) {
		gotHost := ""
		gotPath := ""
		backend := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotHost = r.Host
				gotPath = r.URL.Path
				w.Header().Set("Server", "gunicorn")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("backend says hi"))
			},
		))
		defer backend.Close()

		a := newAssets(t)
		e := gatewayFor(t, backend.URL, a)

		for _, path := range []string{"/api/recipes/42/", "/admin/login/"} {
			req := httptest.NewRequest(http.MethodGet, "http://foodgram.example.org"+path, nil)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("%s: unexpected status: %d", path, rec.Code)
			}
			if rec.Body.String() != "backend says hi" {
				t.Errorf("%s: unexpected body: %s", path, rec.Body.String())
			}
			if gotHost != "foodgram.example.org" {
				t.Errorf("%s: Host is not preserved: %s", path, gotHost)
			}
			if gotPath != path {
				t.Errorf("%s: path is not preserved: %s", path, gotPath)
			}
			if server := rec.Header().Get(echo.HeaderServer); server != "" {
				t.Errorf("%s: Server header leaked: %s", path, server)
			}
		}
	})

	t.Run("query strings are forwarded", func(t *testing.T) {
		gotQuery := ""
		backend := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
			},
		))
		defer backend.Close()

		a := newAssets(t)
		e := gatewayFor(t, backend.URL, a)

		req := httptest.NewRequest(http.MethodGet, "/api/recipes/?page=2&limit=6", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if gotQuery != "page=2&limit=6" {
			t.Errorf("query is not preserved: %s", gotQuery)
		}
	})

	t.Run("an unreachable backend is 502, not an internal error", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {},
		))
		backend.Close() // nobody listens there anymore

		a := newAssets(t)
		e := gatewayFor(t, backend.URL, a)

		req := httptest.NewRequest(http.MethodGet, "/api/recipes/", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("unmatch status: (actual, expected) = (%d, %d)", rec.Code, http.StatusBadGateway)
		}
	})
}

func TestBodyLimit(t *testing.T) {
	t.Run("a body over 20MiB is rejected before the backend sees it", func(t *testing.T) {
		backendHit := false
		backend := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) { backendHit = true },
		))
		defer backend.Close()

		a := newAssets(t)
		e := gatewayFor(t, backend.URL, a)

		body := bytes.Repeat([]byte("x"), 21*1024*1024)
		req := httptest.NewRequest(http.MethodPost, "/api/recipes/", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("unmatch status: (actual, expected) = (%d, %d)", rec.Code, http.StatusRequestEntityTooLarge)
		}
		if backendHit {
			t.Error("the oversized request reached the backend")
		}
	})

	t.Run("a body under the ceiling passes through", func(t *testing.T) {
		received := 0
		backend := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				buf := make([]byte, 32*1024)
				for {
					n, err := r.Body.Read(buf)
					received += n
					if err != nil {
						break
					}
				}
			},
		))
		defer backend.Close()

		a := newAssets(t)
		e := gatewayFor(t, backend.URL, a)

		body := bytes.Repeat([]byte("x"), 1024*1024)
		req := httptest.NewRequest(http.MethodPost, "/api/recipes/", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", rec.Code)
		}
		if received != 1024*1024 {
			t.Errorf("backend received %d bytes", received)
		}
	})
}

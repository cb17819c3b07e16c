package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// --- Tests ---

func TestWrap_Order(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(okHandler(), mark("outer"), mark("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	d := jx.DecodeBytes(w.Body.Bytes())
	var msg string
	require.NoError(t, d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "message" {
			v, err := d.Str()
			msg = v
			return err
		}
		return d.Skip()
	}))
	assert.Equal(t, "internal server error", msg)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
	t.Run("Reused", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "abc-123")
		w := serve(h, r)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
	t.Run("Rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "bad\x01id")
		serve(h, r)
		assert.NotEqual(t, "bad\x01id", seen)
	})
}

func TestSession(t *testing.T) {
	var seen string
	h := Session(SessionConfig{CookieName: "sid", MaxAge: time.Hour})(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = SessionFromContext(r.Context())
		}),
	)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, seen)
	first := seen

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: first})
	w = serve(h, r)
	assert.Empty(t, w.Result().Cookies(), "existing session must not be reissued")
	assert.Equal(t, first, seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-uuid"})
	serve(h, r)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestRouteFinder(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/order/{id}", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)
	find := MakeRouteFinder(router)

	assert.Equal(t, "/order/{id}", find(httptest.NewRequest(http.MethodGet, "/order/ABC", nil)))
	assert.Empty(t, find(httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

func TestLogRequests_PassesThrough(t *testing.T) {
	h := LogRequests(func(*http.Request) string { return "/x" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://pizza.example"}, MaxAge: 600})(okHandler())

	t.Run("Preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
		r.Header.Set("Origin", "https://PIZZA.example")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(h, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://PIZZA.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})
	t.Run("UnknownOrigin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example")
		w := serve(h, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
	t.Run("Wildcard", func(t *testing.T) {
		h := CORS(CORSConfig{})(okHandler())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://any.example")
		w := serve(h, r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewLimiter(2, time.Minute), nil)(okHandler())

	req := func(addr string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		return r
	}
	for range 2 {
		w := serve(h, req("10.0.0.1:9999"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := serve(h, req("10.0.0.1:9999"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = serve(h, req("10.0.0.2:9999"))
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")
}

func TestLimiter_SlidesWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok := l.Allow("k", base)
	require.True(t, ok)
	_, _, ok = l.Allow("k", base.Add(time.Second))
	require.True(t, ok)
	_, _, ok = l.Allow("k", base.Add(2*time.Second))
	require.False(t, ok)

	// At the start of the next window the previous one still counts fully.
	_, _, ok = l.Allow("k", base.Add(time.Minute))
	assert.False(t, ok)

	// Two windows later the key starts fresh.
	_, _, ok = l.Allow("k", base.Add(3*time.Minute))
	assert.True(t, ok)

	l.Sweep(base.Add(10 * time.Minute))
	assert.Empty(t, l.keys)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(r))
}

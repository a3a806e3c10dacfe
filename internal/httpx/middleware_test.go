package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRequestID_GeneratesAndKeeps(t *testing.T) {
	r := New()
	r.GET("/x", func(c *gin.Context) {
		rid, _ := c.Get("rid")
		c.String(http.StatusOK, "%v", rid)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Request-ID") == "" || w.Body.String() != w.Header().Get("X-Request-ID") {
		t.Fatalf("request id no generado: header=%q body=%q", w.Header().Get("X-Request-ID"), w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id no respetado: %q", w.Header().Get("X-Request-ID"))
	}
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	New().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestFailAndInternal(t *testing.T) {
	r := New()
	r.GET("/bad", func(c *gin.Context) { Fail(c, http.StatusBadRequest, "nope") })
	r.GET("/boom", func(c *gin.Context) { Internal(c, errors.New("db password leaked")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	var got HTTPError
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || w.Code != http.StatusBadRequest || got.Error != "nope" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if w.Code != http.StatusInternalServerError || got.Error != "internal error" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

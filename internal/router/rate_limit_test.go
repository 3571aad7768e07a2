package router

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handlershared "github.com/optical-member/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"phone":" 13800000000 "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("phone")(c)
	if key != "13800000000|1.2.3.4" {
		t.Fatalf("key want 13800000000|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), " 13800000000 ") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitMiddlewareLocalFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{Prefix: "scan", WindowSeconds: 60, MaxRequests: 2}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass, body=%s", i+1, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if !strings.Contains(w.Body.String(), `"status_code":429`) {
		t.Fatalf("third request should be limited, body=%s", w.Body.String())
	}
}

func TestLocalLimiterRecovers(t *testing.T) {
	limiter := newLocalLimiter(RateLimitRule{WindowSeconds: 10, MaxRequests: 1})
	now := time.Now()
	if ok, _ := limiter.allow("k", now); !ok {
		t.Fatalf("first request should pass")
	}
	ok, wait := limiter.allow("k", now)
	if ok {
		t.Fatalf("second request should be limited")
	}
	if wait != 10 {
		t.Fatalf("wait want 10 got %d", wait)
	}
	if ok, _ := limiter.allow("k", now.Add(11*time.Second)); !ok {
		t.Fatalf("request after window should pass")
	}
	if ok, _ := limiter.allow("other", now); !ok {
		t.Fatalf("other key should have its own bucket")
	}
}

func TestKeyByStaffID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if key := KeyByStaffID(c); key != "" {
		t.Fatalf("key without staff want empty got %s", key)
	}
	c.Set(handlershared.ContextStaffID, uint(3))
	if key := KeyByStaffID(c); key != "staff-3" {
		t.Fatalf("key want staff-3 got %s", key)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}

func TestLocalLimiterEvictsIdleKeys(t *testing.T) {
	l := newLocalLimiter(RateLimitRule{Prefix: "login", WindowSeconds: 60, MaxRequests: 5})
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		if allowed, _ := l.allow(fmt.Sprintf("login:1380000%04d|1.2.3.4", i), start); !allowed {
			t.Fatalf("first request for key %d should pass", i)
		}
	}
	if got := l.size(); got != 1000 {
		t.Fatalf("size want 1000 got %d", got)
	}

	// 一个窗口内仍活跃的 key 不会被清理
	l.allow("login:active|1.2.3.4", start.Add(90*time.Second))
	if got := l.size(); got != 1001 {
		t.Fatalf("keys idle for less than two windows must stay, size=%d", got)
	}

	l.allow("login:late|1.2.3.4", start.Add(time.Hour))
	if got := l.size(); got != 1 {
		t.Fatalf("idle keys should be evicted, size=%d", got)
	}
}

func TestLocalLimiterKeepsStateForActiveKey(t *testing.T) {
	l := newLocalLimiter(RateLimitRule{WindowSeconds: 60, MaxRequests: 1})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if allowed, _ := l.allow("scan:staff-1", now); !allowed {
		t.Fatalf("first request should pass")
	}
	allowed, wait := l.allow("scan:staff-1", now.Add(time.Second))
	if allowed {
		t.Fatalf("second request inside the window should be limited")
	}
	if wait < 1 || wait > 60 {
		t.Fatalf("wait seconds out of range: %d", wait)
	}
}

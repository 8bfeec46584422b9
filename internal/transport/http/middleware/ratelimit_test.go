package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newLimiter(t *testing.T, burst int, trusted ...string) *RateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRateLimiter(ctx, rate.Limit(0.001), burst, ParseTrustedProxies(trusted))
}

func request(remote, xff, xRealIP string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	if xRealIP != "" {
		req.Header.Set("X-Real-Ip", xRealIP)
	}
	return req
}

func TestClientIP_RemoteAddr(t *testing.T) {
	rl := newLimiter(t, 1)
	assert.Equal(t, "192.168.1.1", rl.clientIP(request("192.168.1.1:54321", "", "")))
}

func TestClientIP_IgnoresHeadersFromUntrustedPeer(t *testing.T) {
	rl := newLimiter(t, 1)
	assert.Equal(t, "203.0.113.9", rl.clientIP(request("203.0.113.9:1000", "1.2.3.4", "5.6.7.8")))

	rl = newLimiter(t, 1, "10.0.0.0/8")
	assert.Equal(t, "203.0.113.9", rl.clientIP(request("203.0.113.9:1000", "1.2.3.4", "")))
}

func TestClientIP_TrustedProxy_UsesRightmostUntrustedHop(t *testing.T) {
	rl := newLimiter(t, 1, "10.0.0.0/8")
	assert.Equal(t, "5.6.7.8", rl.clientIP(request("10.0.0.2:443", "1.2.3.4, 5.6.7.8, 10.0.0.7", "")))
}

func TestClientIP_TrustedProxy_XRealIPFallback(t *testing.T) {
	rl := newLimiter(t, 1, "10.0.0.2")
	assert.Equal(t, "9.10.11.12", rl.clientIP(request("10.0.0.2:443", "", "9.10.11.12")))
}

func TestClientIP_TrustedProxy_AllHopsTrusted(t *testing.T) {
	rl := newLimiter(t, 1, "10.0.0.0/8")
	assert.Equal(t, "10.0.0.2", rl.clientIP(request("10.0.0.2:443", "10.1.1.1", "")))
}

func TestParseTrustedProxies(t *testing.T) {
	got := ParseTrustedProxies([]string{" 10.0.0.0/8", "192.168.1.7", "", "not-an-ip"})
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
	}, got)
}

func TestLimit_RejectsOverBurst(t *testing.T) {
	h := newLimiter(t, 2).Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request("7.7.7.7:1000", "", ""))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request("8.8.8.8:1000", "", ""))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLimit_RotatingForwardedForDoesNotResetBucket(t *testing.T) {
	h := newLimiter(t, 10).Limit(http.HandlerFunc(okHandler))

	allowed := 0
	for i := 0; i < 100; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request("203.0.113.9:4000", fmt.Sprintf("198.51.100.%d", i), ""))
		if rr.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestEvict_DropsStaleClients(t *testing.T) {
	rl := newLimiter(t, 1)
	rl.get("1.1.1.1")
	rl.get("2.2.2.2")
	rl.limiters["1.1.1.1"].lastSeen = time.Now().Add(-time.Hour)

	rl.evict(time.Now())
	assert.NotContains(t, rl.limiters, "1.1.1.1")
	assert.Contains(t, rl.limiters, "2.2.2.2")
}

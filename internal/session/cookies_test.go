package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inboxpilot/gateway/internal/config"
)

func tokenCookies(recorder *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := make(map[string]*http.Cookie)
	response := recorder.Result()
	for _, cookie := range response.Cookies() {
		cookies[cookie.Name] = cookie
	}
	return cookies
}

func TestResponseMirrorSetTokens(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	mirror := NewResponseMirror(recorder, request)
	mirror.SetTokens(Tokens{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 900})

	cookies := tokenCookies(recorder)

	access, exists := cookies[config.GetAccessTokenCookieName()]
	if !exists {
		t.Fatal("access token cookie not written")
	}
	if access.Value != "access-1" {
		t.Errorf("access cookie value = %q, want access-1", access.Value)
	}
	if access.Path != "/" {
		t.Errorf("access cookie path = %q, want /", access.Path)
	}
	if access.SameSite != http.SameSiteLaxMode {
		t.Errorf("access cookie SameSite = %v, want Lax", access.SameSite)
	}
	if access.Secure {
		t.Error("access cookie should not be Secure on a plain HTTP request")
	}
	if access.MaxAge != 900 {
		t.Errorf("access cookie MaxAge = %d, want token expiry", access.MaxAge)
	}

	refresh, exists := cookies[config.GetRefreshTokenCookieName()]
	if !exists {
		t.Fatal("refresh token cookie not written")
	}
	if refresh.Value != "refresh-1" {
		t.Errorf("refresh cookie value = %q, want refresh-1", refresh.Value)
	}
}

func TestResponseMirrorSecureBehindProxy(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.Header.Set("X-Forwarded-Proto", "https")

	mirror := NewResponseMirror(recorder, request)
	mirror.SetTokens(Tokens{AccessToken: "access-1"})

	access := tokenCookies(recorder)[config.GetAccessTokenCookieName()]
	if access == nil || !access.Secure {
		t.Error("cookie should be Secure when the page came over HTTPS")
	}
}

func TestResponseMirrorClearTokens(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	mirror := NewResponseMirror(recorder, request)
	mirror.ClearTokens()

	cookies := tokenCookies(recorder)
	for _, name := range []string{config.GetAccessTokenCookieName(), config.GetRefreshTokenCookieName()} {
		cookie, exists := cookies[name]
		if !exists {
			t.Fatalf("expected expired cookie for %s", name)
		}
		if cookie.Value != "" {
			t.Errorf("cleared cookie %s still has value %q", name, cookie.Value)
		}
		if !cookie.Expires.Before(time.Now()) {
			t.Errorf("cleared cookie %s not expired: %v", name, cookie.Expires)
		}
	}
}

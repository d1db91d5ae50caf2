package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/logger"
	"github.com/inboxpilot/gateway/internal/session"
)

// Path classification for the route guard. Prefix match, longest list first
// is irrelevant since the lists are disjoint.
var (
	protectedPrefixes = []string{"/dashboard", "/profile", "/settings", "/checkout"}
	authPrefixes      = []string{"/login", "/register", "/auth/google/callback"}
	excludedPrefixes  = []string{"/api/", "/static/", "/assets/", "/healthz", "/ws/", "/favicon.ico"}
)

// RouteGuard decides allow-or-redirect per navigation, outside any handler:
// protected paths without an auth cookie bounce to /login carrying the
// original path, auth paths with a cookie bounce to the dashboard, and
// everything else passes through unchanged.
func RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if matchesPrefix(path, excludedPrefixes) {
			next.ServeHTTP(w, r)
			return
		}

		authenticated := hasAuthCookie(r)

		switch {
		case matchesPrefix(path, protectedPrefixes) && !authenticated:
			logger.Debug(logger.GUARD, "Redirecting unauthenticated request for %s to login", path)
			target := "/login?redirect=" + url.QueryEscape(path)
			http.Redirect(w, r, target, http.StatusFound)

		case matchesPrefix(path, authPrefixes) && authenticated:
			logger.Debug(logger.GUARD, "Redirecting authenticated request for %s to dashboard", path)
			http.Redirect(w, r, session.DefaultLandingPath, http.StatusFound)

		default:
			next.ServeHTTP(w, r)
		}
	})
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasAuthCookie checks the mirrored access token cookie. The guard only
// reads the projection; it never touches the session store.
func hasAuthCookie(r *http.Request) bool {
	cookie, err := r.Cookie(config.GetAccessTokenCookieName())
	return err == nil && cookie.Value != ""
}

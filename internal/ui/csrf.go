package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"scouthub/internal/middleware"
)

const (
	csrfCookieName = "scout_csrf"
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

type csrfContextKey struct{}

// csrfGuard protects the scouting forms. Every visitor gets a double-submit
// cookie; unsafe requests must echo it in the form (or header) and must not
// come from another origin.
type csrfGuard struct {
	secure bool
	origin *http.CrossOriginProtection
	logger *slog.Logger
}

func newCSRFGuard(secure bool, logger *slog.Logger) *csrfGuard {
	return &csrfGuard{secure: secure, origin: http.NewCrossOriginProtection(), logger: logger}
}

func (g *csrfGuard) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookieToken := readCSRFCookie(r)
		token := cookieToken
		if token == "" {
			token = rand.Text()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				HttpOnly: true,
				Secure:   g.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		r = r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token))

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if err := g.origin.Check(r); err != nil {
			g.reject(w, r, "Cross-origin form submissions are not accepted.", err)
			return
		}
		if cookieToken == "" {
			g.reject(w, r, "Missing CSRF token cookie. Reload the form and submit again.", nil)
			return
		}
		formToken := strings.TrimSpace(r.Header.Get(csrfHeaderName))
		if formToken == "" {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			_ = r.ParseForm()
			formToken = strings.TrimSpace(r.PostForm.Get(csrfFieldName))
		}
		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) != 1 {
			g.reject(w, r, "Invalid or missing CSRF token. Reload the form and submit again.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *csrfGuard) reject(w http.ResponseWriter, r *http.Request, msg string, err error) {
	middleware.Logger(r.Context(), g.logger).Warn("form rejected", "path", r.URL.Path, "reason", msg, "error", err)
	renderHTML(w, http.StatusForbidden, errorPage("Submission Blocked", msg))
}

// csrfField is the hidden input every form on the pages carries.
func csrfField(r *http.Request) gomponents.Node {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	return html.Input(html.Type("hidden"), html.Name(csrfFieldName), html.Value(token))
}

func readCSRFCookie(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

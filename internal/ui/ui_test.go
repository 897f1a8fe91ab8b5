package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scouthub/internal/audit"
	"scouthub/internal/domain"
	"scouthub/internal/normalize"
	"scouthub/internal/schema"
	"scouthub/internal/service/analytics"
	"scouthub/internal/service/ingestion"
	"scouthub/internal/testutil"
)

type mockAsker struct {
	fn func(ctx context.Context, q string) (*analytics.Answer, error)
}

func (m *mockAsker) Ask(ctx context.Context, q string) (*analytics.Answer, error) { return m.fn(ctx, q) }

type fixture struct {
	router http.Handler
	audit  *audit.Log
	asker  *mockAsker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	desc := schema.Current()
	f := &fixture{audit: audit.New(10), asker: &mockAsker{}}
	svc := ingestion.NewService(normalize.New(desc), &testutil.MockCSVWriter{}, &testutil.MockInserter{}, f.audit, logger)

	r := chi.NewRouter()
	r.Route("/ui", func(r chi.Router) {
		MountRoutes(r, NewHandler(svc, f.asker, f.audit, desc, logger), nil)
	})
	f.router = r
	return f
}

const token = "test-token-0123456789"

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// post sends a form with a matching CSRF cookie unless form carries its own token.
func (f *fixture) post(path string, form url.Values, withCookie bool) *httptest.ResponseRecorder {
	if form.Get(csrfFieldName) == "" {
		form.Set(csrfFieldName, token)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if withCookie {
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestFormPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.get("/ui/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, `name="team"`)
	assert.Contains(t, body, `type="checkbox"`)
	assert.Contains(t, body, `name="auto_climb"`)
	assert.Contains(t, body, `<select id="f-alliance" name="alliance">`)
	assert.Contains(t, body, "Autonomous")
	assert.Contains(t, body, "Endgame")
	assert.NotContains(t, body, `name="total_points"`, "derived columns are not inputs")
	assert.Contains(t, body, `name="csrf_token"`)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "csrf cookie must be issued")
	assert.Contains(t, body, cookie.Value)
}

func TestFormSubmit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.post("/ui/submit", url.Values{
		"team":            {"254"},
		"match_number":    {"7"},
		"alliance":        {"red"},
		"auto_leave":      {"on"},
		"teleop_coral_l4": {"2"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Saved submission")
	assert.Contains(t, rec.Body.String(), "Team 254, match 7")

	entries := f.audit.List()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SourceForm, entries[0].Source)
	assert.Equal(t, true, entries[0].Record["auto_leave"])
	assert.NotContains(t, entries[0].Record, csrfFieldName)
}

func TestFormSubmit_Rejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.post("/ui/submit", url.Values{"match_number": {"7"}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Submission rejected")
	assert.Contains(t, rec.Body.String(), "team")
	assert.Zero(t, f.audit.Len())
}

func TestCSRF(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.post("/ui/submit", url.Values{"team": {"1"}, "match_number": {"1"}}, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing CSRF token cookie")

	rec = f.post("/ui/submit", url.Values{"team": {"1"}, "match_number": {"1"}, csrfFieldName: {"forged"}}, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or missing CSRF token")
	assert.Zero(t, f.audit.Len())
}

func TestCSRF_CrossOrigin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	form := url.Values{"team": {"1"}, "match_number": {"1"}, csrfFieldName: {token}}
	req := httptest.NewRequest(http.MethodPost, "/ui/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cross-origin form submissions are not accepted.")
	assert.Zero(t, f.audit.Len())
}

func TestCSRF_HeaderToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	form := url.Values{"team": {"118"}, "match_number": {"4"}}
	req := httptest.NewRequest(http.MethodPost, "/ui/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(csrfHeaderName, token)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.audit.Len())
}

func TestAsk(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.asker.fn = func(_ context.Context, q string) (*analytics.Answer, error) {
		assert.Equal(t, "best climbers", q)
		return &analytics.Answer{
			Question: q,
			Query:    "SELECT team FROM match_scouting",
			Columns:  []string{"team"},
			Data:     []map[string]any{{"team": int64(1678)}},
			Fixups:   []string{"bool_aggregate"},
			Summary:  "Team 1678 climbs every match.",
		}, nil
	}
	rec := f.post("/ui/ask", url.Values{"question": {"  best climbers "}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Team 1678 climbs every match.")
	assert.Contains(t, body, "SELECT team FROM match_scouting")
	assert.Contains(t, body, "<td>1678</td>")
	assert.Contains(t, body, "Fixups: bool_aggregate")
}

func TestAsk_GateRejection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.asker.fn = func(context.Context, string) (*analytics.Answer, error) {
		return nil, &domain.GateError{Stage: domain.StageKeywordChecked, Reason: "forbidden keyword", Candidate: "DELETE FROM match_scouting"}
	}
	rec := f.post("/ui/ask", url.Values{"question": {"wipe it"}}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden keyword")
	assert.Contains(t, rec.Body.String(), "<pre>DELETE FROM match_scouting</pre>")
}

func TestAsk_ServiceError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.asker.fn = func(context.Context, string) (*analytics.Answer, error) {
		return nil, &domain.ServiceError{Service: "llm", Err: errors.New("down")}
	}
	rec := f.post("/ui/ask", url.Values{"question": {"anything"}}, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecordsPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.get("/ui/records")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No submissions yet.")

	for _, team := range []string{"111", "222"} {
		require.Equal(t, http.StatusOK, f.post("/ui/submit", url.Values{"team": {team}, "match_number": {"3"}}, true).Code)
	}
	body := f.get("/ui/records").Body.String()
	assert.Contains(t, body, "2 submission(s) retained")
	assert.Contains(t, body, "data-show")
	assert.Less(t, strings.Index(body, "<td>222</td>"), strings.Index(body, "<td>111</td>"), "newest first")
}

func TestContainsExpr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `$q === '' || "team 254".includes($q.toLowerCase())`, containsExpr("Team 254"))
}

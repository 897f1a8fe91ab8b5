package sqlgate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scouthub/internal/domain"
	"scouthub/internal/schema"
	"scouthub/internal/testutil"
)

func newGate(gen domain.Generator) *Gate {
	return New(gen, schema.Current(), "SQLite")
}

func requireRejected(t *testing.T, err error, stage domain.GateStage, reason string) *domain.GateError {
	t.Helper()
	var gateErr *domain.GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, stage, gateErr.Stage, "stage")
	assert.Equal(t, reason, gateErr.Reason, "reason")
	return gateErr
}

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{
			name:      "markers and terminator",
			candidate: "<SQL>SELECT team, AVG(total_points) FROM match_scouting GROUP BY team;</SQL>",
			want:      "SELECT team, AVG(total_points) FROM match_scouting GROUP BY team",
		},
		{
			name:      "code fence",
			candidate: "```sql\nSELECT team FROM match_scouting\n```",
			want:      "SELECT team FROM match_scouting",
		},
		{
			name:      "commentary around statement",
			candidate: "Here is the query: SELECT team FROM match_scouting; Let me know if you need more.",
			want:      "SELECT team FROM match_scouting",
		},
		{
			name:      "semicolon inside string literal",
			candidate: "<SQL>SELECT team FROM match_scouting WHERE comments = 'slow; tipped' ;</SQL>",
			want:      "SELECT team FROM match_scouting WHERE comments = 'slow; tipped'",
		},
		{
			name:      "lowercase markers and keyword",
			candidate: "<sql>  select team from match_scouting where alliance = 'red'</sql>",
			want:      "select team from match_scouting where alliance = 'red'",
		},
		{
			name:      "open marker only",
			candidate: "Sure!\n<SQL>\nSELECT COUNT(*) FROM match_scouting",
			want:      "SELECT COUNT(*) FROM match_scouting",
		},
		{
			name:      "schema qualified table and subquery",
			candidate: "SELECT team FROM main.match_scouting WHERE total_points > (SELECT AVG(total_points) FROM match_scouting)",
			want:      "SELECT team FROM main.match_scouting WHERE total_points > (SELECT AVG(total_points) FROM match_scouting)",
		},
		{
			name:      "numeric multiply is left alone",
			candidate: "<SQL>SELECT team, SUM(teleop_coral_l4 * 5) FROM match_scouting GROUP BY team</SQL>",
			want:      "SELECT team, SUM(teleop_coral_l4 * 5) FROM match_scouting GROUP BY team",
		},
		{
			name:      "column names containing keywords",
			candidate: "SELECT team AS updated_team, COUNT(*) AS created_count FROM match_scouting GROUP BY team",
			want:      "SELECT team AS updated_team, COUNT(*) AS created_count FROM match_scouting GROUP BY team",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q, err := g.Validate(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.SQL)
			assert.Equal(t, tt.candidate, q.Candidate)
			assert.Empty(t, q.Fixups)
		})
	}
}

func TestValidate_DropTableAlwaysRejected(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	candidates := []string{
		"DROP TABLE match_scouting",
		"<SQL>DROP TABLE match_scouting</SQL>",
		"<SQL>SELECT team FROM match_scouting</SQL>\ndrop table match_scouting",
		"SELECT team FROM match_scouting; DrOp TaBlE match_scouting;",
		"```sql\nSELECT 1;\nDROP TABLE match_scouting\n```",
		"<SQL>SELECT team FROM match_scouting WHERE comments = 'x'</SQL> -- then Drop Table users",
	}
	for _, c := range candidates {
		q, err := g.Validate(c)
		assert.Nil(t, q, c)
		gateErr := requireRejected(t, err, domain.StageKeywordChecked, ReasonForbiddenKeyword)
		assert.Equal(t, "DROP", gateErr.Detail)
		assert.Equal(t, c, gateErr.Candidate, "candidate is preserved for debugging")
	}
}

func TestValidate_ForbiddenKeywords(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	for _, kw := range []string{"insert", "UPDATE", "Delete", "create", "alter", "truncate", "grant", "revoke"} {
		_, err := g.Validate("<SQL>SELECT team FROM match_scouting; " + kw + " something</SQL>")
		gateErr := requireRejected(t, err, domain.StageKeywordChecked, ReasonForbiddenKeyword)
		assert.Equal(t, strings.ToUpper(kw), gateErr.Detail)
	}
}

func TestValidate_Declined(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	for _, c := range []string{"<SQL>NON_SELECT</SQL>", "NON_SELECT", "```\n<SQL> non_select; </SQL>\n```"} {
		_, err := g.Validate(c)
		gateErr := requireRejected(t, err, domain.StageExtracted, ReasonDeclined)
		assert.Equal(t, c, gateErr.Candidate)
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	tests := []struct {
		name      string
		candidate string
		stage     domain.GateStage
		reason    string
		detail    string
	}{
		{"empty", "   \n", domain.StageRaw, ReasonEmptyResponse, ""},
		{"prose only", "<SQL>I am not able to answer that.</SQL>", domain.StageStatementExtracted, ReasonNoSelect, ""},
		{"garbage after select", "SELECT FROM WHERE (", domain.StageFixedUp, ReasonUnparseable, ""},
		{"cte", "WITH t AS (SELECT team FROM match_scouting) SELECT * FROM t", domain.StageFixedUp, ReasonUnparseable, ""},
		{"nested cte", "SELECT * FROM (WITH t AS (SELECT 1) SELECT * FROM t) s", domain.StageValidated, "common table expressions are not allowed", ""},
		{"other table", "SELECT * FROM users", domain.StageValidated, "table not allowed", "users"},
		{"catalog table", "SELECT * FROM pg_catalog.pg_user", domain.StageValidated, "table not allowed", "pg_catalog.pg_user"},
		{"join other table", "SELECT m.team FROM match_scouting m JOIN secrets s ON s.id = m.team", domain.StageValidated, "table not allowed", "secrets"},
		{"subquery other table", "SELECT team FROM match_scouting WHERE team IN (SELECT team FROM roster)", domain.StageValidated, "table not allowed", "roster"},
		{"table function", "SELECT * FROM read_csv_auto('/etc/passwd')", domain.StageValidated, "table functions are not allowed", ""},
		{"sleep", "SELECT pg_sleep(30)", domain.StageValidated, "function not allowed", "pg_sleep"},
		{"file read in target", "SELECT pg_read_file('/etc/passwd') FROM match_scouting", domain.StageValidated, "function not allowed", "pg_read_file"},
		{"qualified function", "SELECT evil.fn(team) FROM match_scouting", domain.StageValidated, "function not allowed", "evil.fn"},
		{"select into", "SELECT team INTO backup FROM match_scouting", domain.StageValidated, "SELECT INTO is not allowed", ""},
		{"row locking", "SELECT team FROM match_scouting FOR SHARE", domain.StageValidated, "row locking is not allowed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := g.Validate(tt.candidate)
			gateErr := requireRejected(t, err, tt.stage, tt.reason)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, gateErr.Detail)
			}
			assert.Equal(t, tt.candidate, gateErr.Candidate)
		})
	}
}

func TestValidate_Fixups(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	tests := []struct {
		name        string
		candidate   string
		contains    string
		notContains string
		fixups      []string
	}{
		{
			name:        "boolean times literal",
			candidate:   "<SQL>SELECT team, SUM(auto_climb * 15) AS climb_points FROM match_scouting GROUP BY team</SQL>",
			contains:    "CASE WHEN auto_climb THEN 15 ELSE 0 END",
			notContains: "auto_climb * 15",
			fixups:      []string{FixupBoolMultiply},
		},
		{
			name:        "literal times boolean",
			candidate:   "SELECT team, 3 * auto_leave FROM match_scouting",
			contains:    "CASE WHEN auto_leave THEN 3 ELSE 0 END",
			notContains: "3 * auto_leave",
			fixups:      []string{FixupBoolMultiply},
		},
		{
			name:      "average of boolean",
			candidate: "SELECT team, AVG(robot_died) FROM match_scouting GROUP BY team",
			contains:  "CASE WHEN robot_died THEN 1 ELSE 0 END",
			fixups:    []string{FixupBoolAggregate},
		},
		{
			name:        "boolean compared to integer",
			candidate:   "SELECT team FROM match_scouting WHERE 1 = endgame_park",
			contains:    "endgame_park = true",
			notContains: "1 = endgame_park",
			fixups:      []string{FixupBoolCompare},
		},
		{
			name:      "several rules",
			candidate: "SELECT SUM(auto_climb * 15) + SUM(defense_played) FROM match_scouting WHERE robot_died = 0",
			contains:  "robot_died = false",
			fixups:    []string{FixupBoolMultiply, FixupBoolAggregate, FixupBoolCompare},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q, err := g.Validate(tt.candidate)
			require.NoError(t, err)
			assert.True(t, startsWithSelect(q.SQL), q.SQL)
			assert.Contains(t, q.SQL, tt.contains)
			if tt.notContains != "" {
				assert.NotContains(t, q.SQL, tt.notContains)
			}
			assert.ElementsMatch(t, tt.fixups, q.Fixups)
		})
	}
}

func TestValidate_FixupsKeepOriginalText(t *testing.T) {
	t.Parallel()
	g := newGate(nil)

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{
			name:      "cast survives",
			candidate: "SELECT team, CAST(SUM(auto_climb * 15) AS REAL) AS r FROM match_scouting GROUP BY team",
			want:      "SELECT team, CAST(SUM(CASE WHEN auto_climb THEN 15 ELSE 0 END) AS REAL) AS r FROM match_scouting GROUP BY team",
		},
		{
			name:      "qualified column and negative literal",
			candidate: "SELECT m.team, -3 * m.auto_leave FROM match_scouting m",
			want:      "SELECT m.team, CASE WHEN m.auto_leave THEN -3 ELSE 0 END FROM match_scouting m",
		},
		{
			name:      "aggregate and comparison",
			candidate: "SELECT AVG(robot_died) FROM match_scouting WHERE 0 <> endgame_park",
			want:      "SELECT AVG(CASE WHEN robot_died THEN 1 ELSE 0 END) FROM match_scouting WHERE endgame_park <> false",
		},
		{
			name:      "parenthesized operand left alone",
			candidate: "SELECT (auto_climb) * 15 FROM match_scouting",
			want:      "SELECT (auto_climb) * 15 FROM match_scouting",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q, err := g.Validate(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.SQL)
		})
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	gen := &testutil.MockGenerator{GenerateFn: testutil.Replies(
		"<SQL>SELECT team, AVG(total_points) FROM match_scouting GROUP BY team;</SQL>",
	)}
	g := newGate(gen)

	q, err := g.Synthesize(context.Background(), "  Which team scores the most?  ")
	require.NoError(t, err)
	assert.Equal(t, "SELECT team, AVG(total_points) FROM match_scouting GROUP BY team", q.SQL)
	assert.Equal(t, "  Which team scores the most?  ", q.Question)

	prompt := gen.LastPrompt()
	assert.Contains(t, prompt, "read-only SQLite query")
	assert.Contains(t, prompt, "Table match_scouting")
	assert.Contains(t, prompt, "worth 15 points when true")
	assert.Contains(t, prompt, "<SQL>NON_SELECT</SQL>")
	assert.Contains(t, prompt, "Question: Which team scores the most?")
}

func TestSynthesize_GeneratorUnavailable(t *testing.T) {
	t.Parallel()

	boom := errors.New("dial tcp: connection refused")
	gen := &testutil.MockGenerator{GenerateFn: func(context.Context, string) (string, error) {
		return "", boom
	}}

	_, err := newGate(gen).Synthesize(context.Background(), "anything")
	gateErr := requireRejected(t, err, domain.StageRaw, ReasonGeneratorUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, gateErr.Candidate)
}

func TestFirstStatement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"SELECT 1; SELECT 2", "SELECT 1", true},
		{`SELECT "odd;name" FROM t; x`, `SELECT "odd;name" FROM t`, true},
		{"SELECT 'it''s; fine' ; tail", "SELECT 'it''s; fine'", true},
		{"preamble SeLeCt a", "SeLeCt a", true},
		{"selection is not a keyword", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := firstStatement(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

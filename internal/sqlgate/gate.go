// Package sqlgate turns untrusted generator output into a query that is safe to
// execute. A candidate moves through fixed stages and is rejected with a
// *domain.GateError at the first stage it fails:
//
//	RAW -> EXTRACTED -> KEYWORD_CHECKED -> STATEMENT_EXTRACTED -> FIXED_UP -> VALIDATED
//
// The keyword denylist is a coarse first pass. The authoritative check is the
// parse-tree grammar applied at VALIDATED.
package sqlgate

import (
	"context"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// Rejection reasons that callers may match on.
const (
	ReasonGeneratorUnavailable = "generator unavailable"
	ReasonEmptyResponse        = "empty response"
	ReasonDeclined             = "declined by generator"
	ReasonForbiddenKeyword     = "forbidden keyword"
	ReasonNoSelect             = "no SELECT statement found"
	ReasonUnparseable          = "statement does not parse"
	ReasonNotSelect            = "does not begin with SELECT"
)

// Gate obtains candidates from the generator and validates them.
type Gate struct {
	gen     domain.Generator
	desc    *schema.Descriptor
	dialect string
	bools   map[string]bool
}

// New creates a Gate that prompts gen for dialect queries over desc's table.
func New(gen domain.Generator, desc *schema.Descriptor, dialect string) *Gate {
	return &Gate{gen: gen, desc: desc, dialect: dialect, bools: desc.BooleanColumns()}
}

// Prompt returns the generation prompt for question.
func (g *Gate) Prompt(question string) string {
	return BuildPrompt(g.desc, g.dialect, question)
}

// Synthesize asks the generator for a query answering question and validates it.
func (g *Gate) Synthesize(ctx context.Context, question string) (*domain.ValidatedQuery, error) {
	candidate, err := g.gen.Generate(ctx, g.Prompt(question))
	if err != nil {
		return nil, &domain.GateError{
			Stage:  domain.StageRaw,
			Reason: ReasonGeneratorUnavailable,
			Detail: err.Error(),
			Err:    err,
		}
	}
	q, err := g.Validate(candidate)
	if err != nil {
		return nil, err
	}
	q.Question = question
	return q, nil
}

// Validate runs a candidate through every stage after RAW. It does no I/O.
func (g *Gate) Validate(candidate string) (*domain.ValidatedQuery, error) {
	reject := func(stage domain.GateStage, reason, detail string) error {
		return &domain.GateError{Stage: stage, Reason: reason, Detail: detail, Candidate: candidate}
	}

	if strings.TrimSpace(candidate) == "" {
		return nil, reject(domain.StageRaw, ReasonEmptyResponse, "")
	}

	stripped := stripFences(candidate)
	extracted := between(stripped)
	if declined(extracted) {
		return nil, reject(domain.StageExtracted, ReasonDeclined, "")
	}

	// Scan everything the generator said, not just the marked region.
	if kw := forbiddenKeyword(stripped); kw != "" {
		return nil, reject(domain.StageKeywordChecked, ReasonForbiddenKeyword, kw)
	}

	stmt, ok := firstStatement(extracted)
	if !ok || stmt == "" {
		return nil, reject(domain.StageStatementExtracted, ReasonNoSelect, "")
	}

	tree, err := pg_query.Parse(stmt)
	if err != nil {
		return nil, reject(domain.StageFixedUp, ReasonUnparseable, err.Error())
	}
	final, fired, err := fixup(stmt, tree, g.bools)
	if err != nil {
		return nil, reject(domain.StageFixedUp, ReasonUnparseable, err.Error())
	}

	if !startsWithSelect(final) {
		return nil, reject(domain.StageValidated, ReasonNotSelect, "")
	}
	if len(fired) > 0 {
		if tree, err = pg_query.Parse(final); err != nil {
			return nil, reject(domain.StageValidated, ReasonUnparseable, err.Error())
		}
	}
	if v := checkGrammar(tree, g.desc.Table); v != nil {
		return nil, reject(domain.StageValidated, v.reason, v.detail)
	}

	return &domain.ValidatedQuery{SQL: final, Candidate: candidate, Fixups: fired}, nil
}

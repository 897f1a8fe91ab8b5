// Package normalize maps raw submitted payloads onto the scouting descriptor.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// Normalizer turns raw payloads into descriptor-aligned records. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	desc        *schema.Descriptor
	columns     map[string]string // canonical key -> column name
	exact       map[string]bool   // canonical keys that are column names, not aliases
	groups      map[string]schema.Group
	bookkeeping map[string]bool
}

// New builds a Normalizer for the given descriptor.
func New(desc *schema.Descriptor) *Normalizer {
	n := &Normalizer{
		desc:        desc,
		columns:     make(map[string]string),
		exact:       make(map[string]bool),
		groups:      make(map[string]schema.Group),
		bookkeeping: make(map[string]bool),
	}
	for _, c := range desc.Columns {
		n.columns[c.Name] = c.Name
		n.exact[c.Name] = true
		for _, a := range c.Aliases {
			if _, taken := n.columns[Canonical(a)]; !taken {
				n.columns[Canonical(a)] = c.Name
			}
		}
	}
	for _, g := range desc.Groups {
		n.groups[Canonical(g.Source)] = g
		for _, a := range g.Aliases {
			n.groups[Canonical(a)] = g
		}
	}
	for _, b := range desc.Bookkeeping {
		n.bookkeeping[Canonical(b)] = true
	}
	return n
}

// Descriptor returns the descriptor the normalizer was built for.
func (n *Normalizer) Descriptor() *schema.Descriptor { return n.desc }

// Normalize maps raw onto the descriptor: bookkeeping keys are dropped, groups
// are flattened, unknown keys are discarded, every column is coerced to its type
// with per-type defaults for absent values, and the derived score is recomputed.
// Normalizing an already-normalized record returns it unchanged.
func (n *Normalizer) Normalize(raw map[string]any) (domain.ScoutingRecord, error) {
	if len(raw) == 0 {
		return nil, domain.ErrValidation("empty payload")
	}

	// Sorted keys make alias collisions resolve the same way every time.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]any)
	fromExact := make(map[string]bool)
	recognized := 0
	assign := func(col string, v any, exact bool) {
		if _, seen := values[col]; seen && (fromExact[col] || !exact) {
			return
		}
		values[col] = v
		fromExact[col] = exact
	}

	for _, k := range keys {
		key := Canonical(k)
		if n.bookkeeping[key] {
			continue
		}
		if col, ok := n.columns[key]; ok {
			recognized++
			assign(col, raw[k], n.exact[key])
			continue
		}
		if g, ok := n.groups[key]; ok {
			recognized++
			levels, err := flattenGroup(g, raw[k])
			if err != nil {
				return nil, err
			}
			for col, v := range levels {
				// Explicit flat columns win over the nested form.
				if _, seen := values[col]; !seen {
					values[col] = v
				}
			}
		}
	}
	if recognized == 0 {
		return nil, domain.ErrValidation("payload has no recognized fields")
	}

	rec := make(domain.ScoutingRecord, len(n.desc.Columns))
	for _, c := range n.desc.Columns {
		if c.Derived {
			continue
		}
		v := values[c.Name]
		if c.Required && isBlank(v) {
			return nil, domain.ErrValidation("missing required field %q", c.Name)
		}
		coerced, err := coerce(c, v)
		if err != nil {
			return nil, err
		}
		rec[c.Name] = coerced
	}
	if derived, ok := n.desc.DerivedColumn(); ok {
		rec[derived.Name] = int64(math.Round(n.desc.Score(rec)))
	}
	return rec, nil
}

// flattenGroup expands a nested breakdown into <source>_<level> columns. Level
// keys match case-insensitively and absent levels map to nil.
func flattenGroup(g schema.Group, v any) (map[string]any, error) {
	out := make(map[string]any, len(g.Levels))
	if v == nil {
		for _, lvl := range g.Levels {
			out[g.Source+"_"+strings.ToLower(lvl)] = nil
		}
		return out, nil
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return nil, domain.ErrValidation("field %q must be an object, got %T", g.Source, v)
	}
	byLevel := make(map[string]any, len(nested))
	for k, val := range nested {
		byLevel[strings.ToLower(strings.TrimSpace(k))] = val
	}
	for _, lvl := range g.Levels {
		out[g.Source+"_"+strings.ToLower(lvl)] = byLevel[strings.ToLower(lvl)]
	}
	return out, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func coerce(c schema.Column, v any) (any, error) {
	switch c.Type {
	case schema.TypeInteger:
		n, err := toInt(v)
		if err != nil {
			return nil, domain.ErrValidation("field %q: %v", c.Name, err)
		}
		return n, nil
	case schema.TypeReal:
		f, err := toFloat(v)
		if err != nil {
			return nil, domain.ErrValidation("field %q: %v", c.Name, err)
		}
		return f, nil
	case schema.TypeBoolean:
		b, err := toBool(v)
		if err != nil {
			return nil, domain.ErrValidation("field %q: %v", c.Name, err)
		}
		return b, nil
	default:
		s := toText(v)
		if len(c.Enum) == 0 {
			return s, nil
		}
		s = strings.ToLower(s)
		if s == "" {
			return s, nil
		}
		for _, e := range c.Enum {
			if e.Value == s {
				return s, nil
			}
		}
		return nil, domain.ErrValidation("field %q: %q is not an allowed value", c.Name, s)
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float64:
		return integral(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x.String())
		}
		return integral(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return integral(f)
	default:
		return 0, fmt.Errorf("cannot use %T as an integer", v)
	}
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x.String())
		}
		return f, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot use %T as a number", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", x.String())
		}
		return f != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "on", "true", "yes", "y", "1", "checked":
			return true, nil
		case "off", "false", "no", "n", "0", "":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", x)
	default:
		return false, fmt.Errorf("cannot use %T as a boolean", v)
	}
}

func toText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Canonical converts a field name to lower snake_case: "autoCoralL1",
// "Auto Coral L1" and "auto-coral-l1" all become "auto_coral_l1".
func Canonical(name string) string {
	runes := []rune(strings.TrimSpace(name))
	var b strings.Builder
	lastUnderscore := true
	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 && !lastUnderscore {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		lastUnderscore = false
	}
	return strings.TrimSuffix(b.String(), "_")
}

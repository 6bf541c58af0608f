package template

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

type tokenKind int8

const (
	kindIn tokenKind = iota
	kindNotIn
	kindValues
)

func (k tokenKind) String() string {
	switch k {
	case kindIn:
		return "in"
	case kindNotIn:
		return "not_in"
	default:
		return "values"
	}
}

// token is one recognized placeholder occurrence in SQL text.
type token struct {
	kind       tokenKind
	name       string // column reference, possibly table-qualified
	start, end int    // byte offsets of the full {kind__name} token
}

// key returns the Templates lookup key, e.g. "in__actor.name".
func (t token) key() string {
	return t.kind.String() + "__" + t.name
}

var placeholderRegex = regexp.MustCompile(
	`\{(in|not_in|values)__([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)\}`)

const parseCacheSize = 1024

// parseCache memoizes the token scan per SQL text. Cache hits never change
// expansion output; they only skip the regex walk.
var parseCache, _ = lru.New[string, []token](parseCacheSize)

// scanTokens returns the placeholder tokens of sql in textual order.
func scanTokens(sql string) []token {
	if toks, ok := parseCache.Get(sql); ok {
		return toks
	}
	matches := placeholderRegex.FindAllStringSubmatchIndex(sql, -1)
	toks := make([]token, 0, len(matches))
	for _, m := range matches {
		var k tokenKind
		switch sql[m[2]:m[3]] {
		case "in":
			k = kindIn
		case "not_in":
			k = kindNotIn
		case "values":
			k = kindValues
		}
		toks = append(toks, token{
			kind:  k,
			name:  sql[m[4]:m[5]],
			start: m[0],
			end:   m[1],
		})
	}
	parseCache.Add(sql, toks)
	return toks
}

// Expand rewrites every template placeholder in q.SQL into a literal SQL
// fragment plus generated named parameters, and returns the final statement
// together with the union of caller and generated bindings.
//
// Generated parameter names are deterministic: the placeholder name with '.'
// replaced by '_', suffixed by the value index and, for VALUES rows, the
// column name. Repeated occurrences of the same placeholder expand to the
// same fragment and share one generated parameter set. A generated name that
// collides with a caller parameter or with a different placeholder's
// parameters fails expansion.
func Expand(q Query) (Statement, error) {
	toks := scanTokens(q.SQL)

	for key := range q.Templates {
		if !containsKey(toks, key) {
			return Statement{}, errf(key, "template parameter has no matching placeholder in SQL")
		}
	}

	params := make(map[string]any, len(q.Params)+len(toks)*4)
	for k, v := range q.Params {
		params[k] = v
	}

	if len(toks) == 0 {
		return Statement{SQL: q.SQL, Params: params}, nil
	}

	var b strings.Builder
	b.Grow(len(q.SQL) + len(toks)*32)
	last := 0
	fragments := make(map[string]string, len(toks))

	for _, tok := range toks {
		in, ok := q.Templates[tok.key()]
		if !ok {
			return Statement{}, errf(tok.key(), "no template parameter supplied")
		}
		if in.kind != tok.kind {
			return Statement{}, errf(tok.key(), "template parameter kind is %s", in.kind)
		}

		b.WriteString(q.SQL[last:tok.start])
		last = tok.end

		// A placeholder seen before reuses its fragment and bindings.
		if frag, seen := fragments[tok.key()]; seen {
			b.WriteString(frag)
			continue
		}

		var fb strings.Builder
		var err error
		switch tok.kind {
		case kindIn, kindNotIn:
			err = expandList(&fb, params, tok, in.list)
		case kindValues:
			err = expandValues(&fb, params, tok, in.rows)
		}
		if err != nil {
			return Statement{}, err
		}
		fragments[tok.key()] = fb.String()
		b.WriteString(fb.String())
	}
	b.WriteString(q.SQL[last:])

	return Statement{SQL: b.String(), Params: params}, nil
}

// expandList emits "col IN (:col_0, …)" or the NOT IN form, binding one
// generated parameter per value in input order. Empty lists are rejected:
// there is no SQL rewrite of an empty IN list that preserves caller intent.
func expandList(b *strings.Builder, params map[string]any, tok token, values []any) error {
	if len(values) == 0 {
		return errf(tok.key(), "list must not be empty")
	}
	base := paramBase(tok.name)

	b.WriteString(tok.name)
	if tok.kind == kindNotIn {
		b.WriteString(" NOT IN (")
	} else {
		b.WriteString(" IN (")
	}
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		name := base + "_" + strconv.Itoa(i)
		if err := bindGenerated(params, tok, name, v); err != nil {
			return err
		}
		b.WriteByte(':')
		b.WriteString(name)
	}
	b.WriteByte(')')
	return nil
}

// expandValues emits "(col_a, col_b) VALUES (:x_0_col_a, :x_0_col_b), …"
// using the first row's column order. Every row must carry the same column
// set; order within later rows is irrelevant.
func expandValues(b *strings.Builder, params map[string]any, tok token, rows []Row) error {
	if len(rows) == 0 {
		return errf(tok.key(), "must have at least one row")
	}
	cols := rows[0].Columns()
	if len(cols) == 0 {
		return errf(tok.key(), "rows must have at least one column")
	}
	for i, row := range rows[1:] {
		if !sameColumnSet(cols, row.Columns()) {
			return errf(tok.key(), "row %d column set differs from row 0", i+1)
		}
	}
	base := paramBase(tok.name)

	b.WriteByte('(')
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
	}
	b.WriteString(") VALUES ")

	for r, row := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c, col := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			v, _ := row.Value(col)
			name := base + "_" + strconv.Itoa(r) + "_" + col
			if err := bindGenerated(params, tok, name, v); err != nil {
				return err
			}
			b.WriteByte(':')
			b.WriteString(name)
		}
		b.WriteByte(')')
	}
	return nil
}

// bindGenerated records a generated parameter, rejecting name collisions with
// caller parameters and previously generated ones.
func bindGenerated(params map[string]any, tok token, name string, v any) error {
	if _, exists := params[name]; exists {
		return errf(tok.key(), "generated parameter %q collides with an existing parameter", name)
	}
	params[name] = v
	return nil
}

func paramBase(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func containsKey(toks []token, key string) bool {
	for _, t := range toks {
		if t.key() == key {
			return true
		}
	}
	return false
}

// sameColumnSet reports whether a and b contain the same column names,
// ignoring order.
func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

package template

import (
	"strings"

	"github.com/Konsultn-Engineering/dynq/dialect"
)

// BindNamed rewrites a Statement's :name parameter tokens into the dialect's
// positional placeholders and returns the SQL together with the argument list
// in placeholder order. Parameter values are passed through untouched; they
// are never interpolated into the SQL text.
//
// The scanner skips string literals, quoted identifiers, line and block
// comments, and Postgres-style ::casts. A :name token with no matching
// parameter fails with a template Error; parameters the SQL never references
// are ignored.
func BindNamed(stmt Statement, d dialect.Dialect) (string, []any, error) {
	q := stmt.SQL

	var b strings.Builder
	b.Grow(len(q) + 16)
	args := make([]any, 0, len(stmt.Params))

	const (
		sText = iota
		sSingle
		sDouble
		sBacktick
		sLineComment
		sBlockComment
	)
	state := sText
	n := 0

	for i := 0; i < len(q); {
		c := q[i]

		switch state {
		case sText:
			switch {
			case c == '\'':
				state = sSingle
			case c == '"':
				state = sDouble
			case c == '`':
				state = sBacktick
			case c == '-' && i+1 < len(q) && q[i+1] == '-':
				state = sLineComment
			case c == '/' && i+1 < len(q) && q[i+1] == '*':
				state = sBlockComment
			case c == ':':
				// "::" is a cast, not a parameter
				if i+1 < len(q) && q[i+1] == ':' {
					b.WriteString("::")
					i += 2
					continue
				}
				if i+1 < len(q) && isNameStart(q[i+1]) {
					j := i + 1
					for j < len(q) && isNameByte(q[j]) {
						j++
					}
					name := q[i+1 : j]
					v, ok := stmt.Params[name]
					if !ok {
						return "", nil, errf("", "no value for parameter :%s", name)
					}
					n++
					b.WriteString(d.Placeholder(n))
					args = append(args, v)
					i = j
					continue
				}
			}
			b.WriteByte(c)
			i++

		case sSingle:
			b.WriteByte(c)
			i++
			if c == '\'' {
				if i < len(q) && q[i] == '\'' {
					b.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sDouble:
			b.WriteByte(c)
			i++
			if c == '"' {
				state = sText
			}

		case sBacktick:
			b.WriteByte(c)
			i++
			if c == '`' {
				state = sText
			}

		case sLineComment:
			b.WriteByte(c)
			i++
			if c == '\n' {
				state = sText
			}

		case sBlockComment:
			b.WriteByte(c)
			i++
			if c == '*' && i < len(q) && q[i] == '/' {
				b.WriteByte('/')
				i++
				state = sText
			}
		}
	}

	return b.String(), args, nil
}

func isNameStart(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

func isNameByte(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

package mysqlx

import (
	"strings"
)

// scanPlaceholders returns the :name placeholders of a SQL expression in
// first-appearance order, skipping string literals, quoted identifiers, and
// comments. Duplicate names are reported once.
func scanPlaceholders(expr string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(expr); {
		c := expr[i]
		switch c {
		case '\'', '"', '`':
			i = skipQuoted(expr, i)
		case '#':
			i = skipLine(expr, i)
		case '-':
			if strings.HasPrefix(expr[i:], "-- ") {
				i = skipLine(expr, i)
			} else {
				i++
			}
		case '/':
			if strings.HasPrefix(expr[i:], "/*") {
				end := strings.Index(expr[i+2:], "*/")
				if end < 0 {
					return names
				}
				i += 2 + end + 2
			} else {
				i++
			}
		case ':':
			start := i + 1
			j := start
			for j < len(expr) && isNameChar(expr[j], j == start) {
				j++
			}
			if j > start {
				name := expr[start:j]
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
			i = j
		default:
			i++
		}
	}
	return names
}

// substPlaceholders replaces every :name in expr with a ? and returns the
// names in the order the ?s appear, including repeats.
func substPlaceholders(expr string) (string, []string) {
	var sb strings.Builder
	var order []string
	for i := 0; i < len(expr); {
		c := expr[i]
		switch c {
		case '\'', '"', '`':
			end := skipQuoted(expr, i)
			sb.WriteString(expr[i:end])
			i = end
		case ':':
			start := i + 1
			j := start
			for j < len(expr) && isNameChar(expr[j], j == start) {
				j++
			}
			if j > start {
				order = append(order, expr[start:j])
				sb.WriteByte('?')
				i = j
			} else {
				sb.WriteByte(c)
				i++
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), order
}

func isNameChar(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func skipQuoted(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			// Doubled quote is an escaped quote inside the literal.
			if i+1 < len(s) && s[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(s)
}

func skipLine(s string, start int) int {
	if i := strings.IndexByte(s[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(s)
}

// quoteIdent wraps a SQL identifier in backticks, escaping embedded ones.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// qualify renders a schema-qualified object name.
func qualify(schema, name string) string {
	if schema == "" {
		return quoteIdent(name)
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

package sqlgen

import "strings"

// StripOrderBy removes a top-level ORDER BY clause and everything after it.
// ORDER BY inside parentheses (subqueries, window functions) or inside
// quoted text is kept. SQL without a top-level ORDER BY is returned
// unchanged apart from trailing whitespace.
func StripOrderBy(sql string) string {
	if i := topLevelOrderBy(sql); i >= 0 {
		return strings.TrimRight(sql[:i], " \t\r\n")
	}
	return strings.TrimRight(sql, " \t\r\n")
}

// HasOrderBy reports whether sql has a top-level ORDER BY.
func HasOrderBy(sql string) bool {
	return topLevelOrderBy(sql) >= 0
}

func topLevelOrderBy(sql string) int {
	depth := 0
	for i := 0; i < len(sql); {
		switch c := sql[i]; {
		case c == '\'' || c == '"':
			i = skipQuoted(sql, i, c)
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == 'o' || c == 'O'):
			if matchOrderBy(sql, i) {
				return i
			}
		}
		i++
	}
	return -1
}

// matchOrderBy reports whether "ORDER <ws> BY" starts at i on word
// boundaries.
func matchOrderBy(sql string, i int) bool {
	if i > 0 && isIdentByte(sql[i-1]) {
		return false
	}
	if len(sql)-i < 5 || !strings.EqualFold(sql[i:i+5], "order") {
		return false
	}
	j := i + 5
	ws := j
	for j < len(sql) && isSpace(sql[j]) {
		j++
	}
	if j == ws || len(sql)-j < 2 || !strings.EqualFold(sql[j:j+2], "by") {
		return false
	}
	return j+2 == len(sql) || !isIdentByte(sql[j+2])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

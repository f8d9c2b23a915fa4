package sqlgen

import (
	"strconv"
	"strings"
)

// rewrite walks sql outside quoted literals and quoted identifiers and
// replaces every sigil-prefixed token naming a bound parameter with the
// result of repl. Unknown tokens (for example @@ROWCOUNT) are left alone.
func rewrite(sql string, sigil byte, known func(string) bool, repl func(string) string) string {
	var b strings.Builder
	b.Grow(len(sql))

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			j := skipQuoted(sql, i, c)
			b.WriteString(sql[i:j])
			i = j
		case c == sigil:
			if i+1 < len(sql) && sql[i+1] == sigil {
				b.WriteString(sql[i : i+2])
				i += 2
				continue
			}
			j := i + 1
			for j < len(sql) && isIdentByte(sql[j]) {
				j++
			}
			name := sql[i+1 : j]
			if name != "" && known(name) {
				b.WriteString(repl(name))
			} else {
				b.WriteString(sql[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipQuoted returns the index just past the literal starting at i. A
// doubled quote inside the literal is an escaped quote.
func skipQuoted(sql string, i int, q byte) int {
	j := i + 1
	for j < len(sql) {
		if sql[j] == q {
			if j+1 < len(sql) && sql[j+1] == q {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(sql)
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// rebindNumbered rewrites named placeholders into numbered ones ($1, $2).
// A name used twice keeps its first number.
func rebindNumbered(st Statement, sigil byte, prefix string) (string, []any) {
	numbers := make(map[string]int, st.Params.Len())
	var args []any
	sql := rewrite(st.SQL, sigil, func(name string) bool {
		_, ok := st.Params.Get(name)
		return ok
	}, func(name string) string {
		n, ok := numbers[name]
		if !ok {
			v, _ := st.Params.Get(name)
			args = append(args, v)
			n = len(args)
			numbers[name] = n
		}
		return prefix + strconv.Itoa(n)
	})
	return sql, args
}

// rebindPositional rewrites named placeholders into ? markers, repeating
// the value for every occurrence.
func rebindPositional(st Statement, sigil byte) (string, []any) {
	var args []any
	sql := rewrite(st.SQL, sigil, func(name string) bool {
		_, ok := st.Params.Get(name)
		return ok
	}, func(name string) string {
		v, _ := st.Params.Get(name)
		args = append(args, v)
		return "?"
	})
	return sql, args
}

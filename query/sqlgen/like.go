package sqlgen

import "strings"

// LikeMode selects where the wildcard goes in a LIKE pattern.
type LikeMode int

const (
	LikePrefix LikeMode = iota
	LikeContains
	LikeSuffix
)

func (m LikeMode) String() string {
	switch m {
	case LikePrefix:
		return "prefix"
	case LikeContains:
		return "contains"
	case LikeSuffix:
		return "suffix"
	}
	return "unknown"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// LikePattern builds the bound value for a pattern match. The wildcard is
// part of the parameter, never of the SQL text.
func LikePattern(mode LikeMode, term string) string {
	e := EscapeLike(term)
	switch mode {
	case LikeContains:
		return "%" + e + "%"
	case LikeSuffix:
		return "%" + e
	default:
		return e + "%"
	}
}

// Package compat checks whether a database server is recent enough for the
// SQL a dialect renders.
package compat

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

// Requirement is the server version range a dialect's pagination syntax
// needs.
type Requirement struct {
	Dialect    string
	Syntax     string
	Constraint string
	// Query reads the server version.
	Query string
}

var requirements = map[string]Requirement{
	"postgres":  {Dialect: "postgres", Syntax: "LIMIT/OFFSET", Constraint: ">= 8.4", Query: "SHOW server_version"},
	"mysql":     {Dialect: "mysql", Syntax: "LIMIT/OFFSET", Constraint: ">= 5.0", Query: "SELECT VERSION()"},
	"sqlite":    {Dialect: "sqlite", Syntax: "LIMIT/OFFSET", Constraint: ">= 3.0", Query: "SELECT sqlite_version()"},
	"sqlserver": {Dialect: "sqlserver", Syntax: "OFFSET/FETCH", Constraint: ">= 11.0", Query: "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))"},
	"oracle":    {Dialect: "oracle", Syntax: "OFFSET/FETCH", Constraint: ">= 12.1", Query: "SELECT version FROM product_component_version WHERE product LIKE 'Oracle%'"},
}

// For returns the requirement of a dialect by its canonical name.
func For(dialect string) (Requirement, error) {
	r, ok := requirements[dialect]
	if !ok {
		return Requirement{}, fmt.Errorf("no version requirement for dialect %q", dialect)
	}
	return r, nil
}

var leadingVersion = regexp.MustCompile(`\d+(\.\d+)*`)

// ParseServerVersion extracts the first dotted number from a server's
// version banner, such as "16.2 (Debian 16.2-1)" or "10.11.6-MariaDB".
func ParseServerVersion(banner string) (*version.Version, error) {
	m := leadingVersion.FindString(banner)
	if m == "" {
		return nil, fmt.Errorf("no version number in %q", banner)
	}
	return version.NewVersion(m)
}

// Result is the outcome of a check.
type Result struct {
	Requirement
	Server *version.Version
	OK     bool
}

// Check parses banner and tests it against the dialect's requirement.
func Check(dialect, banner string) (Result, error) {
	req, err := For(dialect)
	if err != nil {
		return Result{}, err
	}
	v, err := ParseServerVersion(banner)
	if err != nil {
		return Result{}, err
	}
	c, err := version.NewConstraint(req.Constraint)
	if err != nil {
		return Result{}, err
	}
	return Result{Requirement: req, Server: v, OK: c.Check(v)}, nil
}

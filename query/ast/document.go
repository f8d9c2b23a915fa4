package ast

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// Predicates serialize as single-key mappings:
//
//	and: [<expr>, <expr>, ...]
//	or: [<expr>, ...]
//	not: <expr>
//	cmp: {op: ">=", column: Age, value: 18}   # or other: <member> for column-to-column
//	column: Active                             # boolean member shorthand
//	isNull: ManagerId
//	notNull: ManagerId
//	startsWith: {column: Name, value: Jo, fold: false}   # also contains, endsWith
//	equalsIgnoreCase: {column: Email, value: a@b.c}
//	const: true
//
// JSON documents are accepted as well since JSON is valid YAML.

// Parse decodes a predicate document.
func Parse(data []byte) (Expr, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ast: parse predicate: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	return FromDocument(doc)
}

// Marshal encodes e as a YAML predicate document.
func Marshal(e Expr) ([]byte, error) {
	doc, err := ToDocument(e)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

var likeKeys = map[string]sqlgen.LikeMode{
	"startsWith": sqlgen.LikePrefix,
	"contains":   sqlgen.LikeContains,
	"endsWith":   sqlgen.LikeSuffix,
}

// FromDocument converts a decoded YAML/JSON value into an expression.
func FromDocument(doc any) (Expr, error) {
	m, ok := doc.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("ast: expected a single-key mapping, got %v", doc)
	}
	var key string
	var val any
	for k, v := range m {
		key, val = k, v
	}

	switch key {
	case "and", "or":
		items, ok := val.([]any)
		if !ok || len(items) == 0 {
			return nil, fmt.Errorf("ast: %s expects a non-empty list", key)
		}
		exprs := make([]Expr, 0, len(items))
		for _, it := range items {
			e, err := FromDocument(it)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		if key == "and" {
			return AllOf(exprs...), nil
		}
		return AnyOf(exprs...), nil
	case "not":
		x, err := FromDocument(val)
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	case "column":
		member, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("ast: column expects a member name")
		}
		return Column{Member: member}, nil
	case "isNull", "notNull":
		member, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("ast: %s expects a member name", key)
		}
		op := OpEq
		if key == "notNull" {
			op = OpNe
		}
		return Compare{Op: op, Left: Column{Member: member}, Right: Literal{}}, nil
	case "const":
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("ast: const expects a boolean")
		}
		return Const{Value: b}, nil
	case "cmp":
		args, err := fields(key, val)
		if err != nil {
			return nil, err
		}
		op, ok := ParseOp(fmt.Sprint(args["op"]))
		if !ok {
			return nil, fmt.Errorf("ast: unknown operator %v", args["op"])
		}
		member, err := memberOf(key, args)
		if err != nil {
			return nil, err
		}
		var right Expr = Literal{Value: args["value"]}
		if other, ok := args["other"].(string); ok {
			right = Column{Member: other}
		}
		return Compare{Op: op, Left: Column{Member: member}, Right: right}, nil
	case "equalsIgnoreCase":
		args, err := fields(key, val)
		if err != nil {
			return nil, err
		}
		member, err := memberOf(key, args)
		if err != nil {
			return nil, err
		}
		return IgnoreCaseEq{Member: member, Value: fmt.Sprint(args["value"])}, nil
	}

	if mode, ok := likeKeys[key]; ok {
		args, err := fields(key, val)
		if err != nil {
			return nil, err
		}
		member, err := memberOf(key, args)
		if err != nil {
			return nil, err
		}
		fold, _ := args["fold"].(bool)
		return Like{Member: member, Mode: mode, Term: fmt.Sprint(args["value"]), Fold: fold}, nil
	}
	return nil, fmt.Errorf("ast: unknown node %q", key)
}

func fields(key string, val any) (map[string]any, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: %s expects a mapping", key)
	}
	return m, nil
}

func memberOf(key string, args map[string]any) (string, error) {
	member, ok := args["column"].(string)
	if !ok || member == "" {
		return "", fmt.Errorf("ast: %s requires a column", key)
	}
	return member, nil
}

// ToDocument converts e into its document form. Call and Arith nodes have
// no document form.
func ToDocument(e Expr) (any, error) {
	switch n := e.(type) {
	case And:
		return listDoc("and", n.Left, n.Right)
	case Or:
		return listDoc("or", n.Left, n.Right)
	case Not:
		x, err := ToDocument(n.X)
		if err != nil {
			return nil, err
		}
		return map[string]any{"not": x}, nil
	case Column:
		return map[string]any{"column": n.Member}, nil
	case Const:
		return map[string]any{"const": n.Value}, nil
	case Compare:
		col, ok := n.Left.(Column)
		if !ok {
			return nil, fmt.Errorf("ast: comparison must start with a column: %s", n)
		}
		switch r := n.Right.(type) {
		case Column:
			return map[string]any{"cmp": map[string]any{"op": string(n.Op), "column": col.Member, "other": r.Member}}, nil
		case Literal:
			if r.Value == nil && (n.Op == OpEq || n.Op == OpNe) {
				key := "isNull"
				if n.Op == OpNe {
					key = "notNull"
				}
				return map[string]any{key: col.Member}, nil
			}
			return map[string]any{"cmp": map[string]any{"op": string(n.Op), "column": col.Member, "value": r.Value}}, nil
		}
		return nil, fmt.Errorf("ast: unsupported comparison operand: %s", n)
	case Like:
		for key, mode := range likeKeys {
			if mode == n.Mode {
				args := map[string]any{"column": n.Member, "value": n.Term}
				if n.Fold {
					args["fold"] = true
				}
				return map[string]any{key: args}, nil
			}
		}
	case IgnoreCaseEq:
		return map[string]any{"equalsIgnoreCase": map[string]any{"column": n.Member, "value": n.Value}}, nil
	}
	return nil, fmt.Errorf("ast: %v has no document form", e)
}

func listDoc(key string, l, r Expr) (any, error) {
	var items []any
	// Flatten left-deep chains of the same operator back into one list.
	for _, side := range []Expr{l, r} {
		if key == "and" {
			if a, ok := side.(And); ok {
				inner, err := listDoc(key, a.Left, a.Right)
				if err != nil {
					return nil, err
				}
				items = append(items, inner.(map[string]any)[key].([]any)...)
				continue
			}
		}
		if key == "or" {
			if o, ok := side.(Or); ok {
				inner, err := listDoc(key, o.Left, o.Right)
				if err != nil {
					return nil, err
				}
				items = append(items, inner.(map[string]any)[key].([]any)...)
				continue
			}
		}
		d, err := ToDocument(side)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return map[string]any{key: items}, nil
}

// Members lists the distinct members referenced by e, sorted.
func Members(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		case Not:
			walk(n.X)
		case Compare:
			walk(n.Left)
			walk(n.Right)
		case Column:
			seen[n.Member] = true
		case Like:
			seen[n.Member] = true
		case IgnoreCaseEq:
			seen[n.Member] = true
		case Call:
			walk(n.Target)
			for _, a := range n.Args {
				walk(a)
			}
		case Arith:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

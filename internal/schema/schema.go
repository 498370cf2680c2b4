// Package schema validates serialized documents against the CUE
// definition of the node schema.
//
// tree.Load is lenient: it drops malformed children and keeps going.
// Validate is strict and reports every violation with its position, for
// tooling that must reject a bad document instead of repairing it.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed node.cue
var nodeSchema string

// Violation is one schema error.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", v.Line, v.Column, v.Path, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validator checks documents against #Node.
type Validator struct {
	ctx  *cue.Context
	node cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(nodeSchema, cue.Filename("node.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile node schema: %w", err)
	}
	node := v.LookupPath(cue.ParsePath("#Node"))
	if err := node.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Node: %w", err)
	}
	return &Validator{ctx: ctx, node: node}, nil
}

// Validate checks a JSON document. It returns nil when the document
// conforms, the violations when it does not, and an error when data is not
// parsable at all.
func (val *Validator) Validate(filename string, data []byte) ([]Violation, error) {
	doc := val.ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	err := val.node.Unify(doc).Validate(cue.Concrete(true))
	if err == nil {
		return nil, nil
	}
	return violations(err), nil
}

// violations flattens CUE errors, keeping the first position of each.
func violations(err error) []Violation {
	var out []Violation
	for _, e := range errors.Errors(err) {
		v := Violation{
			Path:    pathString(e.Path()),
			Message: e.Error(),
		}
		if positions := errors.Positions(e); len(positions) > 0 {
			v.Line = positions[0].Line()
			v.Column = positions[0].Column()
		}
		out = append(out, v)
	}
	return out
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, ".")
}

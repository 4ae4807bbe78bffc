// Package validate checks project and category field sets before they are
// handed to a backend. Backends trust their input; this package is where
// shape and range rules live.
//
// The rules are a CUE schema (schema.cue). A failed check returns a
// *backend.Error with code VALIDATION naming every failing field.
package validate

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Operation names used in validation errors.
const (
	OpValidateProject  = "validate project"
	OpValidateCategory = "validate category"
)

// Validator evaluates field sets against the compiled schema.
//
// Thread-safety: methods are safe for concurrent use. CUE values are not,
// so evaluation is serialized.
type Validator struct {
	mu       sync.Mutex
	ctx      *cue.Context
	project  cue.Value
	category cue.Value
}

// New compiles the schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile validation schema: %w", err)
	}

	v := &Validator{
		ctx:      ctx,
		project:  schema.LookupPath(cue.ParsePath("#Project")),
		category: schema.LookupPath(cue.ParsePath("#Category")),
	}
	if !v.project.Exists() || !v.category.Exists() {
		return nil, fmt.Errorf("validation schema: missing #Project or #Category")
	}
	return v, nil
}

var defaultValidator = sync.OnceValues(New)

// Project validates fields as they would be stored (after Normalize).
func (v *Validator) Project(fields model.ProjectFields) error {
	return v.check(OpValidateProject, v.project, fields.Normalize())
}

// Category validates fields as they would be stored (after Normalize).
func (v *Validator) Category(fields model.CategoryFields) error {
	return v.check(OpValidateCategory, v.category, fields.Normalize())
}

// Project validates with the package's shared Validator.
func Project(fields model.ProjectFields) error {
	v, err := defaultValidator()
	if err != nil {
		return err
	}
	return v.Project(fields)
}

// Category validates with the package's shared Validator.
func Category(fields model.CategoryFields) error {
	v, err := defaultValidator()
	if err != nil {
		return err
	}
	return v.Category(fields)
}

func (v *Validator) check(op string, def cue.Value, fields any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	value := def.Unify(v.ctx.Encode(fields))
	err := value.Validate(cue.Concrete(true), cue.All())
	if err == nil {
		return nil
	}
	return backend.Validation(op, fieldMessages(err))
}

// fieldMessages flattens CUE errors into one message per field. Several
// failures on one field are joined.
func fieldMessages(err error) map[string]string {
	collected := make(map[string][]string)
	for _, e := range errors.Errors(err) {
		field := "_"
		if path := e.Path(); len(path) > 0 {
			field = path[len(path)-1]
		}
		format, args := e.Msg()
		collected[field] = append(collected[field], fmt.Sprintf(format, args...))
	}

	out := make(map[string]string, len(collected))
	for field, msgs := range collected {
		sort.Strings(msgs)
		out[field] = strings.Join(dedupe(msgs), "; ")
	}
	return out
}

// dedupe drops adjacent duplicates from a sorted slice.
func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

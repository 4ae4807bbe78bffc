package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"op and message", Constraint(OpCreateProject, "name taken", nil), "CONSTRAINT: create project: name taken"},
		{"cause only", Store(OpListProjects, "", errors.New("disk full")), "STORE: list projects: disk full"},
		{"message and cause", Schema("", "missing table", errors.New("no such table: projects")), "SCHEMA: missing table: no such table: projects"},
		{"not found", NotFound(OpEditProject, "project", "abc"), `STORE: edit project: project "abc": record not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Predicates(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Constraint(OpCreateCategory, "dup", nil))

	assert.True(t, IsConstraint(wrapped))
	assert.False(t, IsSchema(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, CodeConstraint, CodeOf(wrapped))

	schema := Schema("init", "", ErrNotReady)
	assert.True(t, IsSchema(schema))
	assert.True(t, IsFatal(schema))
	assert.ErrorIs(t, schema, ErrNotReady)

	notFound := NotFound(OpEditCategory, "category", "c1")
	assert.True(t, IsStore(notFound))
	assert.True(t, IsNotFound(notFound))

	v := Validation(OpCreateProject, map[string]string{"name": "invalid name"})
	assert.True(t, IsValidation(v))
	assert.Equal(t, "invalid name", v.Fields["name"])

	timeout := Store(OpListProjects, "", context.DeadlineExceeded)
	assert.True(t, IsTimeout(timeout))
}

func TestCodeOf_ForeignErrorIsStore(t *testing.T) {
	assert.Equal(t, CodeStore, CodeOf(errors.New("plain")))
	assert.False(t, IsStore(errors.New("plain")), "predicates only match taxonomy errors")
}

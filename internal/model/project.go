package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults applied to newly created projects.
const (
	DefaultMaxAuthAttempts   = 5
	DefaultBackOffInterval   = 100  // milliseconds
	DefaultBackOffMaxTimeout = 5000 // milliseconds
)

// Project is a tenant. It owns a set of categories and a rotatable secret
// used to authorize requests.
type Project struct {
	ID                string `json:"_id"`
	Name              string `json:"name"`
	DisplayName       string `json:"display_name"`
	AuthAddress       string `json:"auth_address,omitempty"` // empty means none
	MaxAuthAttempts   int    `json:"max_auth_attempts"`
	BackOffInterval   int    `json:"back_off_interval"`    // milliseconds
	BackOffMaxTimeout int    `json:"back_off_max_timeout"` // milliseconds
	SecretKey         string `json:"secret_key"`
}

// BackOff returns the back-off interval as a duration.
func (p Project) BackOff() time.Duration {
	return time.Duration(p.BackOffInterval) * time.Millisecond
}

// BackOffMax returns the back-off ceiling as a duration.
func (p Project) BackOffMax() time.Duration {
	return time.Duration(p.BackOffMaxTimeout) * time.Millisecond
}

// Fields returns the editable part of the project.
func (p Project) Fields() ProjectFields {
	return ProjectFields{
		Name:              p.Name,
		DisplayName:       p.DisplayName,
		AuthAddress:       p.AuthAddress,
		MaxAuthAttempts:   p.MaxAuthAttempts,
		BackOffInterval:   p.BackOffInterval,
		BackOffMaxTimeout: p.BackOffMaxTimeout,
	}
}

// ProjectFields is the field set accepted by project create and edit.
// Id and secret are never part of it: the backend generates both.
type ProjectFields struct {
	Name              string `json:"name"`
	DisplayName       string `json:"display_name"`
	AuthAddress       string `json:"auth_address,omitempty"`
	MaxAuthAttempts   int    `json:"max_auth_attempts"`
	BackOffInterval   int    `json:"back_off_interval"`
	BackOffMaxTimeout int    `json:"back_off_max_timeout"`
}

// DefaultProjectFields returns a field set with the default limits filled in.
func DefaultProjectFields(name, displayName string) ProjectFields {
	return ProjectFields{
		Name:              name,
		DisplayName:       displayName,
		MaxAuthAttempts:   DefaultMaxAuthAttempts,
		BackOffInterval:   DefaultBackOffInterval,
		BackOffMaxTimeout: DefaultBackOffMaxTimeout,
	}
}

// Normalize returns a copy with surrounding whitespace removed and the name
// lowercased. Backends call it before every write so uniqueness is
// case-insensitive.
func (f ProjectFields) Normalize() ProjectFields {
	f.Name = NormalizeName(f.Name)
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	f.AuthAddress = strings.TrimSpace(f.AuthAddress)
	return f
}

// NormalizeName lowercases a project name the way it is persisted.
// A Caser keeps state, so each call builds its own.
func NormalizeName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// Apply returns p with every editable field replaced by f. Id and secret are
// kept.
func (f ProjectFields) Apply(p Project) Project {
	p.Name = f.Name
	p.DisplayName = f.DisplayName
	p.AuthAddress = f.AuthAddress
	p.MaxAuthAttempts = f.MaxAuthAttempts
	p.BackOffInterval = f.BackOffInterval
	p.BackOffMaxTimeout = f.BackOffMaxTimeout
	return p
}

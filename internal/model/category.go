package model

import "strings"

// DefaultHistorySize is the history length given to new categories.
const DefaultHistorySize = 20

// Category is a channel namespace policy scoped to a project.
type Category struct {
	ID          string `json:"_id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Publish     bool   `json:"publish"`
	IsWatching  bool   `json:"is_watching"`
	Presence    bool   `json:"presence"`
	History     bool   `json:"history"`
	HistorySize int    `json:"history_size"`
	IsProtected bool   `json:"is_protected"`
	AuthAddress string `json:"auth_address,omitempty"` // overrides the project's when set
}

// EffectiveAuthAddress returns the address used to authorize subscriptions
// in this category: its own override, or the project's.
func (c Category) EffectiveAuthAddress(p Project) string {
	if c.AuthAddress != "" {
		return c.AuthAddress
	}
	return p.AuthAddress
}

// Fields returns the editable part of the category.
func (c Category) Fields() CategoryFields {
	return CategoryFields{
		Name:        c.Name,
		Publish:     c.Publish,
		IsWatching:  c.IsWatching,
		Presence:    c.Presence,
		History:     c.History,
		HistorySize: c.HistorySize,
		IsProtected: c.IsProtected,
		AuthAddress: c.AuthAddress,
	}
}

// CategoryFields is the field set accepted by category create and edit.
type CategoryFields struct {
	Name        string `json:"name"`
	Publish     bool   `json:"publish"`
	IsWatching  bool   `json:"is_watching"`
	Presence    bool   `json:"presence"`
	History     bool   `json:"history"`
	HistorySize int    `json:"history_size"`
	IsProtected bool   `json:"is_protected"`
	AuthAddress string `json:"auth_address,omitempty"`
}

// DefaultCategoryFields returns a field set with presence and history on.
func DefaultCategoryFields(name string) CategoryFields {
	return CategoryFields{
		Name:        name,
		Presence:    true,
		History:     true,
		HistorySize: DefaultHistorySize,
	}
}

// Normalize trims surrounding whitespace. Category names keep their case.
func (f CategoryFields) Normalize() CategoryFields {
	f.Name = strings.TrimSpace(f.Name)
	f.AuthAddress = strings.TrimSpace(f.AuthAddress)
	return f
}

// Apply returns c with every editable field replaced by f. Id and project
// are kept.
func (f CategoryFields) Apply(c Category) Category {
	c.Name = f.Name
	c.Publish = f.Publish
	c.IsWatching = f.IsWatching
	c.Presence = f.Presence
	c.History = f.History
	c.HistorySize = f.HistorySize
	c.IsProtected = f.IsProtected
	c.AuthAddress = f.AuthAddress
	return c
}

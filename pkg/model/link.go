package model

import (
	"errors"
	"fmt"
)

// LinkType classifies the relationship an edge expresses between two tasks.
type LinkType string

const (
	LinkWaiting    LinkType = "waiting"    // source waits on target
	LinkDelegated  LinkType = "delegated"  // source was handed off to target
	LinkReferences LinkType = "references" // source mentions target
	LinkMoved      LinkType = "moved"      // source was moved/superseded by target
	LinkBlocks     LinkType = "blocks"     // source blocks target
	LinkRelated    LinkType = "related"    // loose association
)

// ValidLinkType reports whether lt is one of the six known link types.
func ValidLinkType(lt LinkType) bool {
	switch lt {
	case LinkWaiting, LinkDelegated, LinkReferences, LinkMoved, LinkBlocks, LinkRelated:
		return true
	}
	return false
}

var (
	// ErrSelfLoop is returned when a link would connect a task to itself.
	ErrSelfLoop = errors.New("link source and target must differ")
	// ErrStrengthRange is returned when a link strength falls outside [0, 1].
	ErrStrengthRange = errors.New("link strength must be in [0, 1]")
)

// Link is a directed, typed edge between two tasks. Strength is optional;
// when nil the edge counts as weight 1.0 in scoring. Multiple links of
// different types may connect the same pair of tasks; each is a distinct
// edge with its own ID.
type Link struct {
	ID        string   `json:"id"`
	SourceID  string   `json:"source_id"`
	TargetID  string   `json:"target_id"`
	Type      LinkType `json:"link_type"`
	Label     string   `json:"label,omitempty"`
	Strength  *float64 `json:"strength,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

// Validate checks the link invariants the storage layer enforces.
// Endpoint existence is checked by the engine, not here.
func (l Link) Validate() error {
	if l.SourceID == "" || l.TargetID == "" {
		return errors.New("link requires both source and target ids")
	}
	if l.SourceID == l.TargetID {
		return ErrSelfLoop
	}
	if !ValidLinkType(l.Type) {
		return fmt.Errorf("invalid link type %q", l.Type)
	}
	if l.Strength != nil && (*l.Strength < 0 || *l.Strength > 1) {
		return ErrStrengthRange
	}
	return nil
}

// Weight returns the effective edge strength: the explicit strength when
// set, otherwise 1.0.
func (l Link) Weight() float64 {
	if l.Strength != nil {
		return *l.Strength
	}
	return 1.0
}

package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an event id is not in the collection.
	ErrNotFound = errors.New("event not found")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValidationError lists the problems of a submitted event, keyed by field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.Fields {
		v.Add(field, msg)
	}
}

// OrNil returns nil when nothing was added, so callers can return it directly.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = v.Fields[k]
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// CollaboratorError wraps a failure of the persistence layer. Local state
// is left untouched when one is returned.
type CollaboratorError struct {
	Op  string
	Err error
}

func (c *CollaboratorError) Error() string {
	return fmt.Sprintf("repository %s failed: %v", c.Op, c.Err)
}

func (c *CollaboratorError) Unwrap() error {
	return c.Err
}

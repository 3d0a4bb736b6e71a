package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Data-consistency errors. They are reported and the offending entity is
// skipped; they never stop rendering of the rest of the graph.
var (
	// ErrUnknownNode indicates a link or group naming a node id that is not live.
	ErrUnknownNode = errors.New("graph: reference to unknown node")

	// ErrDuplicateNode indicates a node whose id is already live.
	ErrDuplicateNode = errors.New("graph: duplicate node id")
)

// ConsistencyError wraps a data-consistency error with the entity it concerns.
type ConsistencyError struct {
	Entity  string // "node", "link" or "group"
	ID      string
	Missing []string
	Err     error
}

func (e *ConsistencyError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Entity, e.ID, e.Err, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

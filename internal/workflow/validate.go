package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid workflow")

// Validate checks the structural well-formedness a store requires before it
// accepts a document: every node has a non-empty, unique id and every edge
// names a source and a target. Dangling edge endpoints are allowed, the
// engine treats them as "no successor".
func Validate(w Workflow) error {
	seen := make(map[string]struct{}, len(w.Nodes))
	for i, n := range w.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has an empty id", ErrInvalid, i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalid, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, e := range w.Edges {
		if e.Source == "" || e.Target == "" {
			return fmt.Errorf("%w: edge %d must have both source and target", ErrInvalid, i)
		}
	}
	return nil
}

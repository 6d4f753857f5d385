package storage

import (
	"context"
	"errors"

	"github.com/papercomputeco/liner/pkg/memory"
)

// Chain returns the version chain anchored at id, newest first: the memory
// itself followed by every predecessor reachable through PreviousMemoryID.
//
// Predecessor links are weak references, so a link to a missing memory ends
// the walk instead of failing it. A repeated id also ends the walk, which
// keeps malformed link data from looping forever.
func Chain(ctx context.Context, d Driver, id string) ([]memory.Memory, error) {
	head, err := d.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := []memory.Memory{head}
	seen := map[string]bool{head.MemoryID: true}

	next := head.PreviousMemoryID
	for next != "" && !seen[next] {
		m, err := d.Read(ctx, next)
		if err != nil {
			var notFound NotFoundError
			if errors.As(err, &notFound) {
				break
			}
			return nil, err
		}

		chain = append(chain, m)
		seen[m.MemoryID] = true
		next = m.PreviousMemoryID
	}

	return chain, nil
}

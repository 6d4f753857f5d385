package storage

import (
	"context"
	"strconv"
)

// NextSequenceStart scans the store and returns one past the highest
// numeric memory id, so a sequence allocator resumed over an existing
// collection never collides with committed records. Non-numeric ids are
// ignored; an empty store yields 0.
func NextSequenceStart(ctx context.Context, d Driver) (int64, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	highest := int64(-1)
	for _, m := range all {
		n, err := strconv.ParseInt(m.MemoryID, 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	return highest + 1, nil
}

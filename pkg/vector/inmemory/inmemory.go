// Package inmemory implements pkg/vector's Driver with brute-force search
// over an in-process map. It backs dry runs and tests; nothing survives the
// process.
package inmemory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/liner/pkg/vector"
)

// Driver implements vector.Driver using exhaustive distance scans.
type Driver struct {
	mu    sync.RWMutex
	docs  map[string]vector.Document
	order []string
}

// NewDriver creates a new in-memory vector index.
func NewDriver() *Driver {
	return &Driver{
		docs: make(map[string]vector.Document),
	}
}

// Add stores documents, replacing any with matching ids.
func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		if _, ok := d.docs[doc.ID]; !ok {
			d.order = append(d.order, doc.ID)
		}
		d.docs[doc.ID] = doc
	}

	return nil
}

// Query returns the topK nearest documents by ascending Euclidean distance.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int) ([]vector.Match, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if topK <= 0 || len(d.docs) == 0 {
		return nil, nil
	}

	matches := make([]vector.Match, 0, len(d.docs))
	for _, id := range d.order {
		doc := d.docs[id]
		matches = append(matches, vector.Match{
			Document: doc,
			Distance: euclidean(embedding, doc.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if topK > len(matches) {
		topK = len(matches)
	}

	return matches[:topK], nil
}

// Get retrieves documents by their IDs. Unknown ids are skipped.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var docs []vector.Document
	for _, id := range ids {
		if doc, ok := d.docs[id]; ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if _, ok := d.docs[id]; !ok {
			continue
		}
		delete(d.docs, id)
		for i, ordered := range d.order {
			if ordered == id {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}

	return nil
}

// Count returns the number of indexed documents.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.docs)
}

// Close is a no-op for the in-memory index.
func (d *Driver) Close() error {
	return nil
}

// euclidean computes the L2 distance between two vectors. Mismatched
// lengths compare over the shorter prefix with the remainder counted
// against the longer vector.
func euclidean(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(a[i] - b[i])
		sum += diff * diff
	}
	for _, rest := range [][]float32{a[n:], b[n:]} {
		for _, v := range rest {
			sum += float64(v) * float64(v)
		}
	}

	return float32(math.Sqrt(sum))
}

var _ vector.Driver = (*Driver)(nil)

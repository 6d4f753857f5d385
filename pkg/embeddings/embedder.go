// Package embeddings defines the text embedding contract shared by all
// embedding providers.
package embeddings

import (
	"context"
	"strings"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// Flatten collapses newlines to single spaces. Embedding APIs treat
// newline-heavy input inconsistently, so providers call this before
// submitting text.
func Flatten(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "\r", " ")
}

// Package vectorutils is the vector index utility package
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/papercomputeco/liner/pkg/vector"
	"github.com/papercomputeco/liner/pkg/vector/chroma"
	"github.com/papercomputeco/liner/pkg/vector/inmemory"
	"github.com/papercomputeco/liner/pkg/vector/qdrant"
	"github.com/papercomputeco/liner/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the server address for networked providers: a base URL
	// for chroma, a host:port pair for qdrant.
	TargetURL string

	// Path is the database file path for sqlite-vec.
	Path string

	CollectionName string
	Dimensions     uint
	Logger         *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "inmemory":
		return inmemory.NewDriver(), nil
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Path,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.CollectionName,
		}, o.Logger)
	case "qdrant":
		host, port, err := splitHostPort(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewDriver(ctx, qdrant.Config{
			Host:           host,
			Port:           port,
			CollectionName: o.CollectionName,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitHostPort(target string) (string, int, error) {
	if target == "" {
		return "localhost", 0, nil
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// A bare hostname keeps the driver's default port.
		return target, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

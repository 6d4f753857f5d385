// Package qdrant provides a Qdrant-backed vector driver over the official
// gRPC client. Points are keyed by memory id: dense integer ids map to
// numeric point ids, UUID-scheme ids map to UUID point ids.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	qdr "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/liner/pkg/vector"
)

// DefaultCollectionName is the default collection for memory embeddings.
const DefaultCollectionName = "liner"

// Driver implements vector.Driver using a Qdrant collection with Euclidean
// distance, so scores reported by the server are metric distances.
type Driver struct {
	client     *qdr.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port; 6334 when zero.
	Port int

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is the embedding size the collection is created with.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}
	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdr.NewClient(&qdr.Config{
		Host: c.Host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &qdr.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdr.NewVectorsConfig(&qdr.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdr.Distance_Euclid,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		"host", c.Host,
		"port", port,
		"collection", collection,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// pointID maps a memory id onto a Qdrant point id.
func pointID(id string) *qdr.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdr.NewIDNum(n)
	}
	return qdr.NewID(id)
}

// pointIDString recovers the memory id from a Qdrant point id.
func pointIDString(id *qdr.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadFromMeta converts the metadata view into a Qdrant payload.
func payloadFromMeta(meta map[string]any) map[string]*qdr.Value {
	if meta == nil {
		return nil
	}
	return qdr.NewValueMap(meta)
}

// metaFromPayload converts a Qdrant payload back to the metadata view.
func metaFromPayload(payload map[string]*qdr.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}

	meta := make(map[string]any, len(payload))
	for key, value := range payload {
		switch kind := value.GetKind().(type) {
		case *qdr.Value_StringValue:
			meta[key] = kind.StringValue
		case *qdr.Value_IntegerValue:
			meta[key] = kind.IntegerValue
		case *qdr.Value_DoubleValue:
			meta[key] = kind.DoubleValue
		case *qdr.Value_BoolValue:
			meta[key] = kind.BoolValue
		}
	}

	return meta
}

// Add upserts documents with their embeddings and metadata views.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdr.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdr.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qdr.NewVectors(doc.Embedding...),
			Payload: payloadFromMeta(doc.Metadata),
		}
	}

	_, err := d.client.Upsert(ctx, &qdr.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           qdr.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))

	return nil
}

// Query returns the topK nearest documents by ascending Euclidean distance.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	points, err := d.client.Query(ctx, &qdr.QueryPoints{
		CollectionName: d.collection,
		Query:          qdr.NewQuery(embedding...),
		Limit:          qdr.PtrOf(uint64(topK)),
		WithPayload:    qdr.NewWithPayload(true),
		WithVectors:    qdr.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	matches := make([]vector.Match, 0, len(points))
	for _, point := range points {
		match := vector.Match{
			Document: vector.Document{
				ID:       pointIDString(point.Id),
				Metadata: metaFromPayload(point.Payload),
			},
			// With Euclidean collections the reported score is the
			// metric distance, ordered best-first.
			Distance: point.Score,
		}
		if v := point.Vectors.GetVector(); v != nil {
			match.Embedding = v.Data
		}
		matches = append(matches, match)
	}

	d.logger.Debug("queried qdrant", "results", len(matches))

	return matches, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdr.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	points, err := d.client.Get(ctx, &qdr.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdr.NewWithPayload(true),
		WithVectors:    qdr.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		doc := vector.Document{
			ID:       pointIDString(point.Id),
			Metadata: metaFromPayload(point.Payload),
		}
		if v := point.Vectors.GetVector(); v != nil {
			doc.Embedding = v.Data
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdr.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	_, err := d.client.Delete(ctx, &qdr.DeletePoints{
		CollectionName: d.collection,
		Points:         qdr.NewPointsSelector(pointIDs...),
		Wait:           qdr.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))

	return nil
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)

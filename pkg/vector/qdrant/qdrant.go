// Package qdrant provides a vector driver backed by a Qdrant collection
// over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/vector"
)

const (
	// DefaultCollection holds mnemo's embeddings unless configured otherwise.
	DefaultCollection = "mnemo_memories"

	// payloadID carries the memory record ID. Point IDs must be UUIDs, so
	// record IDs are mapped through pointNamespace.
	payloadID = "record_id"
)

var pointNamespace = uuid.MustParse("0d6f3c1e-5b7a-4c2e-9f10-3a8b2d4e6c71")

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC address, host:port.
	Target string

	APIKey string
	UseTLS bool

	Collection string

	// Dimensions sizes the collection when it is created.
	Dimensions uint

	Logger *slog.Logger
}

// Driver implements vector.Driver using Qdrant.
type Driver struct {
	client     *qdrant.Client
	collection string
	log        *slog.Logger
}

// NewDriver connects and creates the collection with the cosine metric if
// it does not exist yet.
func NewDriver(ctx context.Context, c Config) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}
	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		log.Info("created qdrant collection", "collection", collection, "dimensions", c.Dimensions)
	}

	return &Driver{client: client, collection: collection, log: log}, nil
}

func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{payloadID: doc.ID}),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	d.log.Debug("added documents to qdrant", "count", len(docs))
	return nil
}

// Query ranks by cosine similarity, which Qdrant reports as the score.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	hits, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(hits))
	for _, h := range hits {
		id := h.GetPayload()[payloadID].GetStringValue()
		if id == "" {
			continue
		}
		results = append(results, vector.QueryResult{
			Document: vector.Document{ID: id},
			Score:    h.GetScore(),
		})
	}
	return results, nil
}

func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return []vector.Document{}, nil
	}

	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pids,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		id := p.GetPayload()[payloadID].GetStringValue()
		if id == "" {
			continue
		}
		docs = append(docs, vector.Document{
			ID:        id,
			Embedding: p.GetVectors().GetVector().GetData(),
		})
	}
	return docs, nil
}

func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pids...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

func (d *Driver) Close() error {
	return d.client.Close()
}

// pointID maps any record ID to a stable UUID point ID.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(pointNamespace, []byte(id)).String())
}

func splitTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, errors.New("qdrant target is required")
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, fmt.Errorf("parsing qdrant target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("parsing qdrant target %q: invalid port", target)
	}
	return host, port, nil
}

var _ vector.Driver = (*Driver)(nil)

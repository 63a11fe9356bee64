package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// PineconeStore implements vectorstore.Store against a hosted Pinecone index.
type PineconeStore struct {
	index *pinecone.IndexConnection
}

func NewPineconeStore(ctx context.Context, apiKey, indexHost, namespace string) (*PineconeStore, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("[PineconeStore] failed to create client: %w", err)
	}

	index, err := pc.Index(pinecone.NewIndexConnParams{Host: indexHost, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("[PineconeStore] failed to connect to index: %w", err)
	}

	slog.Info("[PineconeStore] Connected to index", slog.String("host", indexHost))
	return &PineconeStore{index: index}, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, rec := range records {
		metadata, err := structpb.NewStruct(rec.Metadata)
		if err != nil {
			return fmt.Errorf("[PineconeStore] metadata for %s not serializable: %w", rec.ID, err)
		}
		values := rec.Values
		vectors = append(vectors, &pinecone.Vector{
			Id:       rec.ID,
			Values:   &values,
			Metadata: metadata,
		})
	}

	if _, err := s.index.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("[PineconeStore] upsert failed: %w", err)
	}
	return nil
}

func (s *PineconeStore) FetchExisting(ctx context.Context, ids []string) ([]string, error) {
	resp, err := s.index.FetchVectors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("[PineconeStore] fetch failed: %w", err)
	}

	existing := make([]string, 0, len(resp.Vectors))
	for id := range resp.Vectors {
		existing = append(existing, id)
	}
	return existing, nil
}

func (s *PineconeStore) Query(ctx context.Context, q vectorstore.Query) ([]vectorstore.Match, error) {
	var filter *pinecone.MetadataFilter
	if len(q.Filter) > 0 {
		built, err := structpb.NewStruct(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("[PineconeStore] filter not serializable: %w", err)
		}
		filter = built
	}

	resp, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          q.Vector,
		TopK:            uint32(q.TopK),
		MetadataFilter:  filter,
		IncludeMetadata: q.IncludeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("[PineconeStore] query failed: %w", err)
	}

	matches := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Vector == nil {
			continue
		}
		match := vectorstore.Match{ID: m.Vector.Id, Score: m.Score}
		if m.Vector.Metadata != nil {
			match.Metadata = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, match)
	}
	return matches, nil
}

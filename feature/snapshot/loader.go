package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"datasync/core/storage"
	"datasync/core/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// export is the snapshot document written by the upstream GIS tooling:
// one entry per feature with its business key, WKT geometry and optional
// precomputed area.
type export struct {
	Features []exportFeature `json:"features"`
}

type exportFeature struct {
	Key      string   `json:"key"`
	Geometry string   `json:"geometry"`
	Area     *float64 `json:"area,omitempty"`
}

// Source loads the local feature snapshot from object storage.
type Source struct {
	client storage.Client
	bucket string
	object string
	logger *zap.Logger
}

// NewSource creates a snapshot source for one export object.
func NewSource(client storage.Client, bucket, object string, logger *zap.Logger) *Source {
	return &Source{
		client: client,
		bucket: bucket,
		object: object,
		logger: logger,
	}
}

// Load reads and decodes the snapshot export.
func (s *Source) Load(ctx context.Context) ([]sync.Feature, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot %s: %w", s.object, err)
	}
	defer obj.Close()

	var doc export
	if err := json.NewDecoder(obj).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.object, err)
	}

	features := make([]sync.Feature, len(doc.Features))
	for i, f := range doc.Features {
		features[i] = sync.Feature{Key: f.Key, Geometry: f.Geometry, Area: f.Area}
	}

	s.logger.Debug("Snapshot loaded",
		zap.String("object", s.object),
		zap.Int("features", len(features)))
	return features, nil
}

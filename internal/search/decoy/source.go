// Package decoy serves the non-authoritative dataset shown to accounts
// without authoritative access.
package decoy

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.yaml.in/yaml/v3"

	"fraudintel/internal/search/models"
	"fraudintel/pkg/platform/sentinel"
)

//go:embed dataset.yaml
var embeddedDataset []byte

// Source loads the full decoy dataset.
type Source interface {
	Load(ctx context.Context) ([]models.Record, error)
}

type dataset struct {
	Records []models.Record `yaml:"records"`
}

// EmbeddedSource serves the dataset compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Load(_ context.Context) ([]models.Record, error) {
	return ParseYAML(embeddedDataset)
}

// ParseYAML decodes a decoy dataset document.
func ParseYAML(data []byte) ([]models.Record, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse decoy dataset: %w", err)
	}
	return ds.Records, nil
}

// RedisSource reads the dataset from a single Redis key holding a JSON array.
// Operators replace it with Seed; running processes keep their cached copy.
type RedisSource struct {
	client *redis.Client
	key    string
}

func NewRedisSource(client *redis.Client, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

// Load returns sentinel.ErrNotFound when the key has not been seeded.
func (s *RedisSource) Load(ctx context.Context) ([]models.Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read decoy dataset: %w", err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode decoy dataset: %w", err)
	}
	return records, nil
}

// Seed overwrites the stored dataset.
func (s *RedisSource) Seed(ctx context.Context, records []models.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode decoy dataset: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write decoy dataset: %w", err)
	}
	return nil
}

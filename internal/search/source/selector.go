// Package source routes a search to the authoritative store or the decoy
// dataset.
package source

import (
	"context"
	"fmt"

	"fraudintel/internal/search/models"
	"fraudintel/internal/search/query"
	dErrors "fraudintel/pkg/domain-errors"
)

// RecordStore is the authoritative dataset.
type RecordStore interface {
	Find(ctx context.Context, p *query.Predicate, page query.Pagination) (models.Page, error)
}

// DecoyDataset returns the full decoy dataset, already loaded.
type DecoyDataset interface {
	Load(ctx context.Context) ([]models.Record, error)
}

// Selector applies one predicate to whichever dataset the caller may see.
type Selector struct {
	records RecordStore
	decoy   DecoyDataset
}

func New(records RecordStore, decoy DecoyDataset) (*Selector, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if decoy == nil {
		return nil, fmt.Errorf("decoy dataset is required")
	}
	return &Selector{records: records, decoy: decoy}, nil
}

// Select returns one page from the authoritative store when
// canUseAuthoritative is set, otherwise from the decoy dataset. The decoy
// total is the count of matching decoy records, so pagination describes the
// decoy set.
func (s *Selector) Select(ctx context.Context, canUseAuthoritative bool, p *query.Predicate, page query.Pagination) (models.Page, models.Source, error) {
	if canUseAuthoritative {
		result, err := s.records.Find(ctx, p, page)
		if err != nil {
			return models.Page{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to search records")
		}
		return result, models.SourceAuthoritative, nil
	}

	records, err := s.decoy.Load(ctx)
	if err != nil {
		return models.Page{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load decoy dataset")
	}
	return query.Apply(records, p, page), models.SourceDecoy, nil
}

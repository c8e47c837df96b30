package query

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudintel/internal/search/models"
	id "fraudintel/pkg/domain"
)

func TestApply(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []models.Record
	for i := range 25 {
		records = append(records, models.Record{
			ID:        id.NewRecordID(),
			Title:     "lottery scam",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	records = append(records, models.Record{ID: id.NewRecordID(), Title: "unrelated", CreatedAt: base})

	t.Run("total counts all matches and page is newest first", func(t *testing.T) {
		page := Apply(records, Build(models.Criteria{Keyword: "lottery"}), NewPagination(1, 10))

		assert.Equal(t, 25, page.Total)
		require.Len(t, page.Items, 10)
		assert.Equal(t, base.Add(24*time.Hour), page.Items[0].CreatedAt)
		assert.Equal(t, base.Add(15*time.Hour), page.Items[9].CreatedAt)
	})

	t.Run("last partial page", func(t *testing.T) {
		page := Apply(records, Build(models.Criteria{Keyword: "lottery"}), NewPagination(3, 10))

		assert.Equal(t, 25, page.Total)
		assert.Len(t, page.Items, 5)
	})

	t.Run("page past end is empty", func(t *testing.T) {
		page := Apply(records, Build(models.Criteria{Keyword: "lottery"}), NewPagination(9, 10))

		assert.Equal(t, 25, page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("overflowing page number is empty", func(t *testing.T) {
		var page models.Page
		assert.NotPanics(t, func() {
			page = Apply(records, Build(models.Criteria{Keyword: "lottery"}), NewPagination(math.MaxInt, 100))
		})
		assert.Equal(t, 25, page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("input order is not mutated", func(t *testing.T) {
		first := records[0].ID
		Apply(records, Build(models.Criteria{}), NewPagination(1, 5))
		assert.Equal(t, first, records[0].ID)
	})
}

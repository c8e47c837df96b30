package query

import "fraudintel/internal/search/models"

// Apply filters records in memory, orders them newest first and slices the
// requested page. The total counts every match, not just the page.
func Apply(records []models.Record, p *Predicate, pg Pagination) models.Page {
	matched := make([]models.Record, 0, len(records))
	for _, r := range records {
		if p.Matches(r) {
			matched = append(matched, r)
		}
	}
	models.SortNewestFirst(matched)

	start, end := pg.Window(len(matched))
	return models.Page{
		Items: matched[start:end],
		Total: len(matched),
	}
}

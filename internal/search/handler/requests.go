package handler

import (
	"strings"
	"unicode/utf8"

	"fraudintel/internal/search/models"
	"fraudintel/internal/search/query"
	dErrors "fraudintel/pkg/domain-errors"
)

const maxKeywordRunes = 256

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Keyword   string   `json:"q"`
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	MinAmount *float64 `json:"minAmount"`
	MaxAmount *float64 `json:"maxAmount"`
	Fuzziness float64  `json:"fuzziness"`
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
}

// Validate trims the text fields, clamps fuzziness and paging, and rejects
// input no search could satisfy.
func (r *SearchRequest) Validate() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.Type = strings.TrimSpace(r.Type)
	r.Severity = strings.ToLower(strings.TrimSpace(r.Severity))
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)

	if utf8.RuneCountInString(r.Keyword) > maxKeywordRunes {
		return dErrors.New(dErrors.CodeValidation, "q must be at most 256 characters")
	}
	if r.Severity != "" && !models.Severity(r.Severity).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "severity must be one of low, medium, high, critical")
	}
	if r.MinAmount != nil && *r.MinAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "minAmount must not be negative")
	}
	if r.MaxAmount != nil && *r.MaxAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "maxAmount must not be negative")
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return dErrors.New(dErrors.CodeValidation, "minAmount must not exceed maxAmount")
	}

	r.Fuzziness = query.ClampFuzziness(r.Fuzziness)
	page := query.NewPagination(r.Page, r.Limit)
	r.Page, r.Limit = page.Page, page.Size
	return nil
}

// Criteria converts a validated request.
func (r *SearchRequest) Criteria() models.Criteria {
	return models.Criteria{
		Keyword:   r.Keyword,
		Type:      r.Type,
		Severity:  models.Severity(r.Severity),
		Email:     r.Email,
		Phone:     r.Phone,
		MinAmount: r.MinAmount,
		MaxAmount: r.MaxAmount,
		Fuzziness: r.Fuzziness,
		Page:      r.Page,
		PageSize:  r.Limit,
	}
}

package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudintel/internal/search/models"
)

func TestSearchRequest_Normalizes(t *testing.T) {
	req := SearchRequest{
		Keyword:   "  wire transfer  ",
		Type:      " phishing ",
		Severity:  " Critical ",
		Email:     " a@b.io ",
		Fuzziness: -20,
		Page:      0,
		Limit:     0,
	}

	require.NoError(t, req.Validate())

	assert.Equal(t, models.Criteria{
		Keyword:   "wire transfer",
		Type:      "phishing",
		Severity:  models.SeverityCritical,
		Email:     "a@b.io",
		Fuzziness: 0,
		Page:      1,
		PageSize:  20,
	}, req.Criteria())
}

func TestSearchRequest_EqualBoundsAllowed(t *testing.T) {
	v := 25.0
	req := SearchRequest{MinAmount: &v, MaxAmount: &v}
	assert.NoError(t, req.Validate())
}

func TestSearchRequest_FractionalFuzziness(t *testing.T) {
	var req SearchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"q":"gift card","fuzziness":50.5}`), &req))
	require.NoError(t, req.Validate())

	assert.InDelta(t, 50.5, req.Criteria().Fuzziness, 0)
}

func TestSearchRequest_FuzzinessClampedToMax(t *testing.T) {
	req := SearchRequest{Fuzziness: 100.25}
	require.NoError(t, req.Validate())

	assert.InDelta(t, 100, req.Criteria().Fuzziness, 0)
}

package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"trims and drops empties", " a:9092 ,, b:9092 ,", []string{"a:9092", "b:9092"}},
		{"keeps first occurrence", "b,a,b,a", []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw, ","))
		})
	}
}

func TestDedupeAndTrim_Fold(t *testing.T) {
	in := []string{" https://App.example.com", "https://app.example.com ", "HTTPS://OTHER.example.com"}

	assert.Equal(t,
		[]string{"https://app.example.com", "https://other.example.com"},
		DedupeAndTrim(in, true))
	assert.Len(t, DedupeAndTrim(in, false), 3)
}

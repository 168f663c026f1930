package extraction_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ingredient-extractor/internal/core/extraction"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want extraction.FormatType
	}{
		{
			name: "structured",
			text: "Ingredients:\n- 2 cups flour\n- 1 tsp salt\nInstructions:\n1. Mix.",
			want: extraction.FormatStructured,
		},
		{
			name: "narrative",
			text: "First, melt the butter in a pan. Then add the onions and cook them slowly until they are golden and soft. Finally season well.",
			want: extraction.FormatNarrative,
		},
		{
			name: "casual",
			text: "grab some flour and a splash of milk, salt to taste!",
			want: extraction.FormatCasual,
		},
		{
			name: "nothing matches",
			text: "",
			want: extraction.FormatMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, scores := extraction.DetectFormat(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Len(t, scores, 4)
		})
	}
}

func TestDetectFormat_ZeroScores(t *testing.T) {
	_, scores := extraction.DetectFormat("")
	for format, score := range scores {
		assert.Zero(t, score, format)
	}
}

func TestDetectFormat_IgnoresCase(t *testing.T) {
	text := "First, melt the butter in a pan. Then add the onions and cook them slowly until they are golden and soft. Finally season well."

	wantFormat, wantScores := extraction.DetectFormat(text)
	gotFormat, gotScores := extraction.DetectFormat(strings.ToUpper(text))

	assert.Equal(t, wantFormat, gotFormat)
	assert.Equal(t, wantScores, gotScores)
}

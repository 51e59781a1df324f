package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visualmatch/client/internal/domain"
)

func TestDecodeMatches(t *testing.T) {
	t.Run("null body decodes to no matches", func(t *testing.T) {
		matches, err := decodeMatches(strings.NewReader("null"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("ignores unknown product fields", func(t *testing.T) {
		matches, err := decodeMatches(strings.NewReader(
			`[{"product": {"name": "Mug", "category": "Kitchen", "image": "u", "price": 4.5}, "similarity": 0.7}]`))
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, domain.Product{Name: "Mug", Category: "Kitchen", Image: "u"}, matches[0].Product)
	})

	t.Run("empty body decodes to no matches", func(t *testing.T) {
		matches, err := decodeMatches(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		for _, body := range []string{`[] xyz`, `[][]`, `[{"product": {"name": "a"}, "similarity": 0.9}] {`} {
			_, err := decodeMatches(strings.NewReader(body))
			assert.ErrorIs(t, err, domain.ErrMalformedResponse, body)
		}
	})

	t.Run("rejects truncated array", func(t *testing.T) {
		_, err := decodeMatches(strings.NewReader(`[{"product": {"name": "a"}, "simil`))
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("rejects out of range similarity", func(t *testing.T) {
		_, err := decodeMatches(strings.NewReader(`[{"product": {"name": "a"}, "similarity": 7}]`))
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		assert.Contains(t, err.Error(), "element 0")
	})

	t.Run("reports failing element", func(t *testing.T) {
		_, err := decodeMatches(strings.NewReader(
			`[{"product": {"name": "ok"}, "similarity": 0.9}, {"product": {"name": "bad"}}]`))
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		assert.Contains(t, err.Error(), "element 1")
	})
}

func TestMapToMatchResult(t *testing.T) {
	sim := 0.42
	got, err := mapToMatchResult(wireMatch{
		Product:    &wireProduct{Name: "Chair", Category: "Furniture", Image: "https://img.example/chair.png"},
		Similarity: &sim,
	})

	require.NoError(t, err)
	assert.Equal(t, "Chair", got.Product.Name)
	assert.Equal(t, "Furniture", got.Product.Category)
	assert.Equal(t, "https://img.example/chair.png", got.Product.Image)
	assert.Equal(t, 0.42, got.Similarity)
}

func TestMapToMatchResult_SimilarityRange(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		wantErr    bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"threshold", 0.7, false},
		{"negative", -0.01, true},
		{"above one", 1.0001, true},
		{"percentage instead of ratio", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := tt.similarity
			got, err := mapToMatchResult(wireMatch{Product: &wireProduct{Name: "a"}, Similarity: &sim})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "outside [0,1]")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.similarity, got.Similarity)
		})
	}
}

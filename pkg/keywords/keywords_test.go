package keywords_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/projfilter/pkg/keywords"
)

func TestMatcher_WordBoundaries(t *testing.T) {
	m := keywords.New([]string{"cattle"})

	tests := []struct {
		text     string
		expected bool
	}{
		{"Cattle farming", true},
		{"improving cattle.", true},
		{"CATTLE", true},
		{"(cattle)", true},
		{"cattle_feed", false},
		{"cattleship", false},
		{"wildcattle", false},
		{"cattle2", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			found := m.Find(tt.text)
			if tt.expected {
				assert.Equal(t, []string{"cattle"}, found)
			} else {
				assert.Empty(t, found)
			}
		})
	}
}

func TestMatcher_OrderAndDedup(t *testing.T) {
	m := keywords.New([]string{"milk", "dairy", "cattle", "Dairy", "  "})
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"milk", "dairy", "cattle"}, m.Keywords())

	text := "Cattle and dairy cattle produce milk; dairy again."
	assert.Equal(t, []string{"milk", "dairy", "cattle"}, m.Find(text))
	assert.Equal(t, m.Find(text), m.Find(text))
}

func TestMatcher_SpecialCharacters(t *testing.T) {
	m := keywords.New([]string{"c++", "a.b", "vet"})

	assert.Equal(t, []string{"a.b"}, m.Find("value a.b here"))
	assert.Empty(t, m.Find("value axb here"))
	assert.Empty(t, m.Find("veterinary services"))
	assert.Equal(t, []string{"vet"}, m.Find("local vet services"))
}

func TestMatcher_NormalizesInput(t *testing.T) {
	m := keywords.New([]string{"dairy farm", "leche"})

	assert.Equal(t, []string{"dairy farm"}, m.Find("DAIRY\u00a0 \u2009FARM"))
	assert.Equal(t, []string{"dairy farm"}, m.Find("dairy\n\nfarm"))
	assert.Equal(t, []string{"leche"}, m.Find("Producci\u00f3n de LECHE"))
}

func TestMatcher_InvalidUTF8KeepsWordsApart(t *testing.T) {
	m := keywords.New([]string{"dairy", "cattle", "dairycattle"})

	assert.Equal(t, []string{"dairy", "cattle"}, m.Find("dairy\xffcattle"))
}

func TestMatcher_AccentedSource(t *testing.T) {
	m := keywords.New([]string{"ganaderia", "cafe"})

	// NFKD splits the accent off. A trailing mark still ends the word, a mark
	// inside the word breaks the literal.
	assert.Equal(t, []string{"cafe"}, m.Find("caf\u00e9 rural"))
	assert.Empty(t, m.Find("ganader\u00eda"))
}

func TestMatcher_Empty(t *testing.T) {
	m := keywords.New(nil)
	assert.Equal(t, 0, m.Len())

	found := m.Find("Dairy cattle")
	assert.NotNil(t, found)
	assert.Empty(t, found)

	var nilMatcher *keywords.Matcher
	assert.Empty(t, nilMatcher.Find("dairy"))
	assert.Equal(t, 0, nilMatcher.Len())
}

func TestMatcher_EmptyText(t *testing.T) {
	m := keywords.New([]string{"dairy"})
	found := m.Find(" \t\n ")
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

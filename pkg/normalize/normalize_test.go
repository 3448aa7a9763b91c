package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/projfilter/pkg/normalize"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n  ", ""},
		{"plain", "Dairy Farm", "Dairy Farm"},
		{"collapse runs", "Dairy   \t Farm\n\nProject", "Dairy Farm Project"},
		{"trim", "  cattle health  ", "cattle health"},
		{"non-breaking space", "dairy\u00a0farm", "dairy farm"},
		{"figure space", "dairy\u2007farm", "dairy farm"},
		{"thin space", "dairy\u2009farm", "dairy farm"},
		{"hair space", "dairy\u200afarm", "dairy farm"},
		{"mixed unicode spaces", "dairy\u00a0 \u2009\u2007farm", "dairy farm"},
		{"line separator", "dairy\u2028farm", "dairy farm"},
		{"ideographic space", "dairy\u3000farm", "dairy farm"},
		{"accent decomposed", "caf\u00e9", "cafe\u0301"},
		{"ligature folded", "\ufb01eld", "field"},
		{"invalid utf8", "dairy\xff farm", "dairy\ufffd farm"},
		{"invalid utf8 between words", "dairy\xffcattle", "dairy\ufffdcattle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalize.Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Ganader\u00eda bovina\u00a0 y\u2009lecher\u00eda",
		"Producci\u00f3n de LECHE\n\n\tsostenible",
		"\ufb01eld\u2007\u2009 trials e\u0301",
		"a\xffb\u3000c\u200a",
	}

	for _, input := range inputs {
		once := normalize.Normalize(input)
		assert.Equal(t, once, normalize.Normalize(once), "input %q", input)
	}
}

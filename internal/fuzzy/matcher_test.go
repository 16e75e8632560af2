package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "ARROZ", "arroz"},
		{"accents", "Azúcar Morena", "azucar morena"},
		{"enye", "Piña", "pina"},
		{"punctuation", "Líder, S.A.", "lider s a"},
		{"whitespace", "  harina   de\ttrigo ", "harina de trigo"},
		{"digits kept", "Coca-Cola 1.5L", "coca cola 1 5l"},
		{"only symbols", "¿¡!?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "Azúcar", "  MÁS   café!! ", "débito", "Ñandú 42", "crème brûlée", "日本"}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		for _, s := range []string{"a", "arroz", "harina de trigo", "Líder"} {
			assert.InDelta(t, 1.0, Similarity(s, s), 1e-9)
		}
	})

	t.Run("accent insensitive", func(t *testing.T) {
		assert.InDelta(t, 1.0, Similarity("azucar", "azúcar"), 1e-9)
	})

	t.Run("empty against non-empty", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "leche"))
		assert.Equal(t, 0.0, Similarity("leche", ""))
	})

	t.Run("typo", func(t *testing.T) {
		// chocol + te matched: 2*8/17
		assert.InDelta(t, 16.0/17.0, Similarity("chocolte", "chocolate"), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"chocolte", "chocolate"},
			{"abcd", "bcda"},
			{"lider", "el lider"},
			{"harina", "leche"},
		}
		for _, p := range pairs {
			assert.InDelta(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), 1e-9, "pair %v", p)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		s := Similarity("queso", "quesillo")
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	})
}

func TestBestMatch(t *testing.T) {
	t.Run("typo resolves", func(t *testing.T) {
		m, ok := BestMatch("chocolte", []string{"chocolate", "harina", "leche"}, 0.6)
		require.True(t, ok)
		assert.Equal(t, "chocolate", m.Candidate)
		assert.GreaterOrEqual(t, m.Score, 0.6)
	})

	t.Run("below threshold", func(t *testing.T) {
		_, ok := BestMatch("xyz", []string{"chocolate", "harina"}, 0.6)
		assert.False(t, ok)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := BestMatch("arroz", nil, 0)
		assert.False(t, ok)
	})

	t.Run("ties keep first seen", func(t *testing.T) {
		m, ok := BestMatch("Líder", []string{"lider", "LIDER", "Lider"}, 0.5)
		require.True(t, ok)
		assert.Equal(t, "lider", m.Candidate)
	})
}

func TestBestMatches(t *testing.T) {
	candidates := []string{"leche entera", "leche", "lechuga", "harina"}

	matches := BestMatches("leche", candidates, 0.5, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "leche", matches[0].Candidate)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	all := BestMatches("leche", candidates, 0.0, 0)
	assert.Len(t, all, len(candidates))
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}
}

func TestIsCloseMatch(t *testing.T) {
	assert.True(t, IsCloseMatch("débito", "debito", DefaultCloseMatchThreshold))
	assert.True(t, IsCloseMatch("chocolte", "chocolate", DefaultCloseMatchThreshold))
	assert.False(t, IsCloseMatch("harina", "leche", DefaultCloseMatchThreshold))
}

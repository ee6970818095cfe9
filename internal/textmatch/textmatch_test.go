// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWholeWord(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		needle string
		want   []string
	}{
		{"simple", "Il contratto è the contract", "contract", []string{"contract"}},
		{"case-insensitive", "The Contract and the CONTRACT", "contract", []string{"Contract", "CONTRACT"}},
		{"inside longer word", "contracts contractual", "contract", nil},
		{"accented neighbour", "générale", "rale", nil},
		{"accented needle", "L'Assemblée générale a lieu", "assemblée générale", []string{"Assemblée générale"}},
		{"punctuation edges", "see (a) and (a)", "(a)", []string{"(a)", "(a)"}},
		{"retry after rejected match", "bailbail bail", "bail", []string{"bail"}},
		{"empty needle", "text", "  ", nil},
		{"empty text", "", "text", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range WholeWord(tt.text, tt.needle) {
				got = append(got, tt.text[s.Start:s.End])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteral(t *testing.T) {
	text := "Mietvertrag und MIETVERTRAGsklausel"
	spans := Literal(text, "mietvertrag")
	if assert.Len(t, spans, 2) {
		assert.Equal(t, "Mietvertrag", text[spans[0].Start:spans[0].End])
		assert.Equal(t, "MIETVERTRAG", text[spans[1].Start:spans[1].End])
	}
	assert.Empty(t, Literal(text, ""))
}

func TestFlexible(t *testing.T) {
	text := "The parties agree\n that the contract   is valid."
	spans := Flexible(text, "agree that the contract is valid")
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "agree\n that the contract   is valid", text[spans[0].Start:spans[0].End])
	}
	assert.Empty(t, Flexible(text, "   "))
	assert.Empty(t, Flexible(text, "not present"))
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{Start: 0, End: 5}
	assert.True(t, a.Overlaps(Span{Start: 4, End: 8}))
	assert.False(t, a.Overlaps(Span{Start: 5, End: 8}))
	assert.True(t, a.Overlaps(Span{Start: 1, End: 2}))
	assert.Equal(t, 5, a.Len())
}

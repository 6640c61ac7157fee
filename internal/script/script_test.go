package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filler(n int) []Fragment {
	frags := make([]Fragment, n)
	for i := range frags {
		frags[i] = Fragment{Text: "filler word pair"}
	}
	return frags
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "Hello, World!!  \n\tFoo-Bar."
	once := normalize(in)
	twice := normalize(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "hello world foobar", once)
}

func TestChunkIDsAndLength(t *testing.T) {
	doc := document{Pages: []Page{{PageNumber: 1, Fragments: append(
		[]Fragment{{Text: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen"}},
		filler(0)...,
	)}}}
	idx := build(doc)
	require.Greater(t, idx.Len(), 0)
	for i := 0; i < idx.Len(); i++ {
		c := idx.Chunk(i)
		assert.EqualValues(t, i, c.ID)
		assert.Len(t, c.Words, 10)
	}
}

func TestStrideInvariant(t *testing.T) {
	doc := document{Pages: []Page{{PageNumber: 1, Fragments: []Fragment{
		{Text: "a b c d e f g h i j k l m n o p q r s t"},
	}}}}
	idx := build(doc)
	require.GreaterOrEqual(t, idx.Len(), 2)
	for i := 0; i+1 < idx.Len(); i++ {
		cur := idx.Chunk(i)
		next := idx.Chunk(i + 1)
		assert.Equal(t, cur.Words[5:], next.Words[:5])
	}
}

func TestEmptyFragmentsDiscarded(t *testing.T) {
	doc := document{Pages: []Page{{PageNumber: 1, Fragments: []Fragment{
		{Text: "   "},
		{Text: "!!!"},
		{Text: "one two three four five six seven eight nine ten"},
	}}}}
	idx := build(doc)
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "one", idx.Chunk(0).Words[0])
}

func TestZeroChunkScriptDoesNotCrash(t *testing.T) {
	idx := build(document{})
	assert.Equal(t, 0, idx.Len())
}

func TestChunkTextJoinsWords(t *testing.T) {
	doc := document{Pages: []Page{{PageNumber: 1, Fragments: []Fragment{
		{Text: "to be or not to be that is the question"},
	}}}}
	idx := build(doc)
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "to be or not to be that is the question", idx.Chunk(0).Text())
}

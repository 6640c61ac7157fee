// Package script implements the Script Index (§4.2): it loads the
// structured script JSON, normalises every fragment's text, and emits the
// overlapping word chunks the matcher searches.
package script

import (
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/errors"
)

// Fragment is one line of text on a page, as laid out by the PDF extractor
// that produced the script JSON.
type Fragment struct {
	Text   string `json:"text"`
	Bounds struct {
		Bottom float64 `json:"bottom"`
		Height float64 `json:"height"`
	} `json:"bounds"`
}

// Page groups fragments under a page number.
type Page struct {
	PageNumber int        `json:"page_number"`
	Fragments  []Fragment `json:"fragments"`
}

type document struct {
	Pages []Page `json:"pages"`
}

// word is a single normalised token plus the position metadata of the
// fragment it came from.
type word struct {
	text      string
	fragment  int
	y         float64
	page      int
}

// Chunk is an immutable, fixed-length overlapping window of normalised
// script words (§3 ScriptChunk).
type Chunk struct {
	ID              uint64
	Words           [conf.ChunkSize]string
	FirstFragmentID int
	LastFragmentID  int
	LastY           float64
	LastPage        int
}

// Text joins the chunk's words back into a single space-separated string,
// the form the matcher scores against.
func (c Chunk) Text() string {
	return strings.Join(c.Words[:], " ")
}

// Index is the read-only, ordered sequence of chunks produced from a
// script. It is immutable after construction.
type Index struct {
	chunks []Chunk
}

// Len returns the number of chunks in the index.
func (idx *Index) Len() int { return len(idx.chunks) }

// Chunk returns the chunk at position i.
func (idx *Index) Chunk(i int) Chunk { return idx.chunks[i] }

// Chunks returns the full, immutable chunk sequence.
func (idx *Index) Chunks() []Chunk { return idx.chunks }

// Load reads the script JSON at path, normalises every fragment, and
// chunks the resulting token stream per §4.2.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("script").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(err).
			Component("script").
			Category(errors.CategoryConfigInvalid).
			Context("path", path).
			Build()
	}

	return build(doc), nil
}

// build normalises every fragment and chunks the resulting token stream.
// Kept separate from Load so tests can bypass the filesystem.
func build(doc document) *Index {
	var words []word

	fragmentID := 0
	for _, page := range doc.Pages {
		for _, frag := range page.Fragments {
			norm := normalize(frag.Text)
			if norm == "" {
				fragmentID++
				continue
			}
			y := frag.Bounds.Bottom + frag.Bounds.Height/2
			for _, tok := range strings.Fields(norm) {
				words = append(words, word{
					text:     tok,
					fragment: fragmentID,
					y:        y,
					page:     page.PageNumber,
				})
			}
			fragmentID++
		}
	}

	return &Index{chunks: chunkWords(words)}
}

// chunkWords slides a window of conf.ChunkSize words with stride
// conf.ChunkStride over the token stream, discarding a trailing partial
// chunk.
func chunkWords(words []word) []Chunk {
	var chunks []Chunk
	if len(words) < conf.ChunkSize {
		return chunks
	}

	var id uint64
	for start := 0; start+conf.ChunkSize <= len(words); start += conf.ChunkStride {
		span := words[start : start+conf.ChunkSize]
		var c Chunk
		c.ID = id
		for i, w := range span {
			c.Words[i] = w.text
		}
		last := span[len(span)-1]
		c.FirstFragmentID = span[0].fragment
		c.LastFragmentID = last.fragment
		c.LastY = last.y
		c.LastPage = last.page
		chunks = append(chunks, c)
		id++
	}
	return chunks
}

// Normalize lower-cases text, strips ASCII punctuation, and collapses
// whitespace, the same cleanup applied to script fragments. Idempotent:
// Normalize(Normalize(x)) == Normalize(x). Exported so the matcher can
// normalise transcribed input with the identical rule.
func Normalize(s string) string {
	return normalize(s)
}

// normalize lower-cases text, strips ASCII punctuation, and collapses
// whitespace, mirroring the text cleanup the original script handler
// performed before tokenising. Idempotent: normalize(normalize(x)) == normalize(x).
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || (r <= unicode.MaxASCII && unicode.IsSymbol(r)) {
			return -1
		}
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

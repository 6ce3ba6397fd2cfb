package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

const defaultHashDimensions = 256

// Hash is an offline embedder projecting lowercase word tokens into a fixed
// number of buckets. It carries no semantics beyond token overlap but is
// deterministic and needs no network.
type Hash struct {
	dims int
}

// NewHash returns a hashing embedder with dims buckets.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = defaultHashDimensions
	}
	return &Hash{dims: dims}
}

func (h *Hash) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	for _, w := range words {
		f := fnv.New32a()
		f.Write([]byte(w))
		v[f.Sum32()%uint32(h.dims)]++
	}
	return v, nil
}

func (h *Hash) Model() string {
	return fmt.Sprintf("hash-%d", h.dims)
}

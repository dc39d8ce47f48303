// Package face implements the simulated face-recognition pipeline: descriptor
// extraction behind a pluggable Embedder, a bounded similarity score over
// descriptors, and best-match selection across registered accounts.
package face

import (
	"fmt"
	"math/rand"
)

// DescriptorLength is the fixed number of components in a face descriptor.
const DescriptorLength = 128

// Embedder produces a fixed-length numeric embedding from an image. The
// random implementation below is the only one shipped; a real embedding model
// can be dropped in without touching scoring or matching.
type Embedder interface {
	Embed(image []byte) ([]float32, error)
}

// RandomEmbedder is the simulation embedder: it ignores the image content and
// returns DescriptorLength uniform values in [0, 1).
type RandomEmbedder struct{}

func NewRandomEmbedder() *RandomEmbedder {
	return &RandomEmbedder{}
}

func (e *RandomEmbedder) Embed(image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	descriptor := make([]float32, DescriptorLength)
	for i := range descriptor {
		descriptor[i] = rand.Float32()
	}
	return descriptor, nil
}

package faces

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"wedding/utils"
)

// DescriptorSize is the number of elements produced by the recognition network
const DescriptorSize = 128

type (
	// Descriptor is the embedding of one detected face
	Descriptor [DescriptorSize]float32

	// Face is a single detection: where it is and what it looks like
	Face struct {
		Rectangle  image.Rectangle
		Descriptor Descriptor
	}

	// Labeled tags descriptors with the identifier of whoever they belong to
	Labeled struct {
		Label       string
		Descriptors []Descriptor
	}

	// Match is the outcome of comparing one descriptor against a labeled set
	Match struct {
		Matched  bool    `json:"matched"`
		Distance float64 `json:"distance"`
		Label    string  `json:"label"` // nearest label even when not matched, "" when there were no candidates
	}
)

// Distance returns the Euclidean distance between two descriptors
func (d *Descriptor) Distance(other *Descriptor) float64 {
	var sum float64
	for i := range d {
		diff := float64(d[i]) - float64(other[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Bytes serializes the descriptor as little-endian float32 values
func (d *Descriptor) Bytes() []byte {
	return utils.Float32ArrayToByteArray(d[:])
}

func DescriptorFromBytes(b []byte) (d Descriptor, err error) {
	if len(b) != DescriptorSize*4 {
		return d, fmt.Errorf("invalid descriptor size: %d bytes", len(b))
	}
	copy(d[:], utils.ByteArrayToFloat32Array(b))
	return d, nil
}

// MarshalJSON writes an infinite distance (nothing to compare against) as null
func (m Match) MarshalJSON() ([]byte, error) {
	var distance *float64
	if !math.IsInf(m.Distance, 0) && !math.IsNaN(m.Distance) {
		distance = &m.Distance
	}
	return json.Marshal(struct {
		Matched  bool     `json:"matched"`
		Distance *float64 `json:"distance"`
		Label    string   `json:"label"`
	}{m.Matched, distance, m.Label})
}

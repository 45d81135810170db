package faces

import (
	"math"
	"strconv"
)

// Matcher finds the nearest labeled descriptor set for a query descriptor.
// A match requires a distance strictly below the threshold.
type Matcher struct {
	candidates []Labeled
	threshold  float64
}

func NewMatcher(candidates []Labeled, threshold float64) *Matcher {
	usable := make([]Labeled, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Descriptors) > 0 {
			usable = append(usable, c)
		}
	}
	return &Matcher{
		candidates: usable,
		threshold:  threshold,
	}
}

// FindBestMatch returns the nearest candidate label and its distance. The distance to a
// label is the mean distance to all of its descriptors.
func (m *Matcher) FindBestMatch(query *Descriptor) Match {
	best := Match{Distance: math.Inf(1)}
	for _, c := range m.candidates {
		sum := 0.0
		for i := range c.Descriptors {
			sum += query.Distance(&c.Descriptors[i])
		}
		distance := sum / float64(len(c.Descriptors))
		if distance < best.Distance {
			best.Distance = distance
			best.Label = c.Label
		}
	}
	best.Matched = best.Distance < m.threshold
	return best
}

// FindBestMatch is a shorthand for matching one descriptor against unlabeled candidates.
// Each candidate is labeled with its position in the list.
func FindBestMatch(query *Descriptor, candidates []Descriptor, threshold float64) Match {
	labeled := make([]Labeled, 0, len(candidates))
	for i := range candidates {
		labeled = append(labeled, Labeled{
			Label:       IndexLabel(i),
			Descriptors: candidates[i : i+1],
		})
	}
	return NewMatcher(labeled, threshold).FindBestMatch(query)
}

// IndexLabel names the face at position i of an image
func IndexLabel(i int) string {
	return "face_" + strconv.Itoa(i)
}

package faces

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMatcher_EmptyCandidates(t *testing.T) {
	queries := []Descriptor{{}, descriptorWith(1), descriptorWith(-3)}
	for _, q := range queries {
		for _, candidates := range [][]Labeled{nil, {}, {{Label: "7"}}} {
			got := NewMatcher(candidates, 0.6).FindBestMatch(&q)
			if got.Matched || !math.IsInf(got.Distance, 1) || got.Label != "" {
				t.Errorf("FindBestMatch() = %+v, want no match with infinite distance", got)
			}
		}
	}
}

func TestMatcher_Self(t *testing.T) {
	query := descriptorWith(0.3)
	query[42] = -0.11
	m := NewMatcher([]Labeled{
		{Label: "12", Descriptors: []Descriptor{descriptorWith(0.9)}},
		{Label: "15", Descriptors: []Descriptor{query}},
	}, 0.6)
	got := m.FindBestMatch(&query)
	if !got.Matched || got.Distance != 0 || got.Label != "15" {
		t.Errorf("FindBestMatch() = %+v, want {true 0 15}", got)
	}
}

func TestMatcher_Threshold(t *testing.T) {
	query := Descriptor{}
	candidate := []Labeled{{Label: "1", Descriptors: []Descriptor{descriptorWith(0.5)}}}
	tests := []struct {
		name      string
		threshold float64
		want      bool
	}{
		{"below", 0.75, true},
		{"exactly at threshold", 0.5, false},
		{"above", 0.25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMatcher(candidate, tt.threshold).FindBestMatch(&query)
			if got.Matched != tt.want {
				t.Errorf("Matched = %v, want %v (distance %v)", got.Matched, tt.want, got.Distance)
			}
			if got.Distance != 0.5 || got.Label != "1" {
				t.Errorf("got %+v, want nearest label 1 at 0.5", got)
			}
		})
	}
}

func TestMatcher_MeanDistancePerLabel(t *testing.T) {
	query := Descriptor{}
	m := NewMatcher([]Labeled{
		{Label: "two selfies", Descriptors: []Descriptor{descriptorWith(0.25), descriptorWith(0.75)}},
		{Label: "one selfie", Descriptors: []Descriptor{descriptorWith(0.625)}},
	}, 0.6)
	got := m.FindBestMatch(&query)
	if got.Label != "two selfies" || got.Distance != 0.5 || !got.Matched {
		t.Errorf("FindBestMatch() = %+v, want {true 0.5 two selfies}", got)
	}
}

func TestFindBestMatch_IndexLabels(t *testing.T) {
	query := descriptorWith(1)
	got := FindBestMatch(&query, []Descriptor{descriptorWith(5), descriptorWith(1.25)}, 0.55)
	if !got.Matched || got.Label != IndexLabel(1) || got.Distance != 0.25 {
		t.Errorf("FindBestMatch() = %+v", got)
	}
	got = FindBestMatch(&query, nil, 0.55)
	if got.Matched || !math.IsInf(got.Distance, 1) {
		t.Errorf("FindBestMatch(nil) = %+v", got)
	}
}

func TestMatch_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Match{Distance: math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"matched":false,"distance":null,"label":""}` {
		t.Errorf("got %s", data)
	}
	data, err = json.Marshal(Match{Matched: true, Distance: 0.25, Label: "3"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"matched":true,"distance":0.25,"label":"3"}` {
		t.Errorf("got %s", data)
	}
}

func TestDescriptorBytes(t *testing.T) {
	d := descriptorWith(0.125)
	d[127] = -2.5
	b := d.Bytes()
	if len(b) != DescriptorSize*4 {
		t.Fatalf("len = %d", len(b))
	}
	back, err := DescriptorFromBytes(b)
	if err != nil || back != d {
		t.Errorf("DescriptorFromBytes() = %v, %v", back[:2], err)
	}
	if _, err = DescriptorFromBytes(b[:10]); err == nil {
		t.Error("expected size error")
	}
}

func TestDescriptorDistance(t *testing.T) {
	a, b := Descriptor{}, Descriptor{}
	a[0], b[1] = 3, 4
	if got := a.Distance(&b); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
}

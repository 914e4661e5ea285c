package store

import (
	"reflect"
	"testing"
)

func TestEvenSampleIndices(t *testing.T) {
	cases := []struct {
		name string
		n, s int
		want []int
	}{
		{"fewer rows than samples", 3, 10, []int{0, 1, 2}},
		{"exact fit", 5, 5, []int{0, 1, 2, 3, 4}},
		{"even step", 10, 5, []int{0, 2, 4, 6, 8}},
		{"uneven step rounds down", 1000, 3, []int{0, 333, 666}},
		{"zero rows", 0, 5, nil},
		{"zero samples", 10, 0, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := EvenSampleIndices(c.n, c.s)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("EvenSampleIndices(%d, %d) = %v, want %v", c.n, c.s, got, c.want)
			}
		})
	}
}

func TestEvenSampleIndicesNeverExceedsN(t *testing.T) {
	got := EvenSampleIndices(7, 4)
	for _, idx := range got {
		if idx >= 7 {
			t.Fatalf("index %d out of range for n=7", idx)
		}
	}
	if len(got) > 4 {
		t.Fatalf("got %d samples, want at most 4", len(got))
	}
}

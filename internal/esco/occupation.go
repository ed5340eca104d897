package esco

import (
	"github.com/kiraproject/fs-recommender/internal/profile"
)

// Occupation is one candidate with its normalized FutureSkill profile. The
// vector comes from the offline normalizer and is directly comparable to user
// vectors.
type Occupation struct {
	URI        string
	Code       string
	Skills     profile.SkillVector
	Sectors    []int
	BroaderURI string
}

// InSectors reports whether the occupation belongs to at least one of the
// given sectors.
func (o *Occupation) InSectors(codes []int) bool {
	for _, want := range codes {
		for _, have := range o.Sectors {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Occupations is an ordered candidate pool. All transformations return fresh
// pools; shared pools are never mutated so concurrent requests can read them
// without locking.
type Occupations struct {
	Items []*Occupation
}

func (o *Occupations) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Items)
}

// FindByURI returns the occupation with the given uri, or nil.
func (o *Occupations) FindByURI(uri string) *Occupation {
	if o == nil {
		return nil
	}
	for _, oc := range o.Items {
		if oc.URI == uri {
			return oc
		}
	}
	return nil
}

// URIs returns the pool's uris in order.
func (o *Occupations) URIs() []string {
	uris := make([]string, 0, o.Len())
	for _, oc := range o.Items {
		uris = append(uris, oc.URI)
	}
	return uris
}

// Without returns a new pool with every occupation in the exclusion set
// removed, preserving order.
func (o *Occupations) Without(exclude map[string]struct{}) *Occupations {
	out := &Occupations{Items: make([]*Occupation, 0, o.Len())}
	for _, oc := range o.Items {
		if _, drop := exclude[oc.URI]; !drop {
			out.Items = append(out.Items, oc)
		}
	}
	return out
}

// Filter returns a new pool holding only occupations the predicate keeps,
// preserving order.
func (o *Occupations) Filter(keep func(*Occupation) bool) *Occupations {
	out := &Occupations{Items: make([]*Occupation, 0, o.Len())}
	for _, oc := range o.Items {
		if keep(oc) {
			out.Items = append(out.Items, oc)
		}
	}
	return out
}

package esco

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingReference signals that a taxonomy or profile lookup returned
	// nothing for a uri the caller expected to exist.
	ErrMissingReference = errors.New("reference data not found")

	// ErrCorruptHierarchy signals a cycle in the broader-occupation chain.
	// The hierarchy is assumed acyclic; this is asserted, not trusted.
	ErrCorruptHierarchy = errors.New("occupation hierarchy contains a cycle")
)

// Concept is one taxonomy entry: an occupation, an aggregation group or a
// skill.
type Concept struct {
	URI         string
	Label       string
	Description string
	Code        string
}

// SkillRelation links an occupation to one of its skills.
type SkillRelation struct {
	SkillURI     string
	RelationType string // essential or optional
	SkillType    string // skill/competence or knowledge
}

// Taxonomy is the in-memory occupation index: labels, hierarchical codes,
// broader relations, skill relations and sector membership. It is loaded once
// at startup and read-only afterwards.
type Taxonomy struct {
	concepts    map[string]*Concept
	occupations []*Concept
	broader     map[string]string
	relations   map[string][]SkillRelation
	sectors     map[string][]int
}

// NewTaxonomy builds the index and asserts that the broader chains are
// acyclic.
func NewTaxonomy(concepts []*Concept, broader map[string]string, relations map[string][]SkillRelation, sectors map[string][]int) (*Taxonomy, error) {
	t := &Taxonomy{
		concepts:  make(map[string]*Concept, len(concepts)),
		broader:   broader,
		relations: relations,
		sectors:   sectors,
	}
	for _, c := range concepts {
		t.concepts[c.URI] = c
		if c.Code != "" {
			t.occupations = append(t.occupations, c)
		}
	}

	for uri := range broader {
		if err := t.assertAcyclic(uri); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Taxonomy) assertAcyclic(uri string) error {
	visited := map[string]struct{}{}
	for uri != "" {
		if _, seen := visited[uri]; seen {
			return fmt.Errorf("%w: revisited %s", ErrCorruptHierarchy, uri)
		}
		visited[uri] = struct{}{}
		uri = t.broader[uri]
	}
	return nil
}

func (t *Taxonomy) lookup(uri string) (*Concept, error) {
	c, ok := t.concepts[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingReference, uri)
	}
	return c, nil
}

// Label returns the preferred label of a concept.
func (t *Taxonomy) Label(uri string) (string, error) {
	c, err := t.lookup(uri)
	if err != nil {
		return "", err
	}
	return c.Label, nil
}

// Description returns the description of a concept.
func (t *Taxonomy) Description(uri string) (string, error) {
	c, err := t.lookup(uri)
	if err != nil {
		return "", err
	}
	return c.Description, nil
}

// Code returns the hierarchical code of a concept.
func (t *Taxonomy) Code(uri string) (string, error) {
	c, err := t.lookup(uri)
	if err != nil {
		return "", err
	}
	return c.Code, nil
}

// Broader returns the immediate broader uri of a concept. ok is false at the
// taxonomy root.
func (t *Taxonomy) Broader(uri string) (string, bool) {
	broader, ok := t.broader[uri]
	return broader, ok
}

// Narrower returns every occupation whose hierarchical code is a proper
// extension of the given occupation's code.
func (t *Taxonomy) Narrower(uri string) ([]string, error) {
	code, err := t.Code(uri)
	if err != nil {
		return nil, err
	}

	var narrower []string
	for _, c := range t.occupations {
		if len(c.Code) > len(code) && strings.HasPrefix(c.Code, code) {
			narrower = append(narrower, c.URI)
		}
	}
	return narrower, nil
}

// EssentialSkills returns the labels of an occupation's skills. Knowledge and
// optional relations can be filtered out. Relations pointing at unknown skill
// uris are skipped.
func (t *Taxonomy) EssentialSkills(uri string, includeKnowledge, includeOptional bool) ([]string, error) {
	if _, err := t.lookup(uri); err != nil {
		return nil, err
	}

	var labels []string
	for _, rel := range t.relations[uri] {
		if !includeKnowledge && rel.SkillType == "knowledge" {
			continue
		}
		if !includeOptional && rel.RelationType == "optional" {
			continue
		}
		skill, ok := t.concepts[rel.SkillURI]
		if !ok {
			continue
		}
		labels = append(labels, skill.Label)
	}
	return labels, nil
}

// Sectors returns the KldB sector codes an occupation is mapped to.
func (t *Taxonomy) Sectors(uri string) []int {
	return t.sectors[uri]
}

// Package mapping infers a load mapping from a recipe: one step per object
// type with its plain fields and its lookups to referenced tables.
package mapping

import (
	"bytes"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Lookup is a field that holds the id of a record in another table.
type Lookup struct {
	Field string
	Table string
}

// Step loads one object type.
type Step struct {
	Object  string
	Fields  []string
	Lookups []Lookup
}

// Mapping is the ordered list of load steps. Step order follows the first
// appearance of each object type in the recipe, which is a valid load order
// because references only point backwards.
type Mapping struct {
	Steps []Step
}

// Infer builds the mapping for a recipe. Fields of repeated blocks of the
// same object type are merged.
func Infer(recipe *domain.Recipe) *Mapping {
	m := &Mapping{}
	index := make(map[string]int)

	for _, block := range recipe.Blocks {
		i, ok := index[block.Object]
		if !ok {
			i = len(m.Steps)
			index[block.Object] = i
			m.Steps = append(m.Steps, Step{Object: block.Object})
		}
		step := &m.Steps[i]
		for _, f := range block.Fields {
			if table, ok := lookupTable(recipe, f.Spec); ok {
				step.addLookup(Lookup{Field: f.Name, Table: table})
				continue
			}
			step.addField(f.Name)
		}
	}
	return m
}

func (s *Step) addField(name string) {
	for _, f := range s.Fields {
		if f == name {
			return
		}
	}
	for _, l := range s.Lookups {
		if l.Field == name {
			return
		}
	}
	s.Fields = append(s.Fields, name)
}

func (s *Step) addLookup(l Lookup) {
	for _, existing := range s.Lookups {
		if existing.Field == l.Field {
			return
		}
	}
	s.Lookups = append(s.Lookups, l)
}

// lookupTable reports the object type a field references. A random_choice
// counts as a lookup when every pick references the same object type.
func lookupTable(recipe *domain.Recipe, spec domain.FieldSpec) (string, bool) {
	if target, ok := spec.ReferenceTarget(); ok {
		if block, found := recipe.FindAlias(target); found {
			return block.Object, true
		}
		return target, true
	}
	if spec.Kind != domain.KindRandomChoice || len(spec.Choices) == 0 {
		return "", false
	}
	var table string
	for _, c := range spec.Choices {
		t, ok := lookupTable(recipe, c.Pick)
		if !ok || (table != "" && t != table) {
			return "", false
		}
		table = t
	}
	return table, true
}

// MarshalYAML renders the mapping as an ordered YAML document.
func (m *Mapping) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, step := range m.Steps {
		body := &yaml.Node{Kind: yaml.MappingNode}
		body.Content = append(body.Content, scalar("sf_object"), scalar(step.Object))
		body.Content = append(body.Content, scalar("table"), scalar(step.Object))

		if len(step.Fields) > 0 {
			fields := &yaml.Node{Kind: yaml.SequenceNode}
			for _, f := range step.Fields {
				fields.Content = append(fields.Content, scalar(f))
			}
			body.Content = append(body.Content, scalar("fields"), fields)
		}
		if len(step.Lookups) > 0 {
			lookups := &yaml.Node{Kind: yaml.MappingNode}
			for _, l := range step.Lookups {
				target := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("table"), scalar(l.Table)}}
				lookups.Content = append(lookups.Content, scalar(l.Field), target)
			}
			body.Content = append(body.Content, scalar("lookups"), lookups)
		}

		root.Content = append(root.Content, scalar("Insert "+step.Object), body)
	}
	return root, nil
}

// Encode returns the YAML document.
func (m *Mapping) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the mapping for recipe to path.
func WriteFile(path string, recipe *domain.Recipe) error {
	data, err := Infer(recipe).Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

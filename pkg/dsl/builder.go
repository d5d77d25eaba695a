package dsl

import (
	"fmt"

	"github.com/aretw0/seedbed/pkg/domain"
)

// Builder assembles a recipe in declaration order.
type Builder struct {
	source  string
	options []domain.Option
	objects []*ObjectBuilder
}

// New creates a new recipe builder.
func New(source string) *Builder {
	return &Builder{source: source}
}

// Option declares a recipe option with its default.
func (b *Builder) Option(name string, def any) *Builder {
	b.options = append(b.options, domain.Option{Name: name, Default: def})
	return b
}

// Object appends a block. Blocks run in the order they are added.
func (b *Builder) Object(objectType string) *ObjectBuilder {
	ob := &ObjectBuilder{block: domain.ObjectBlock{Object: objectType, Count: domain.FixedCount(1)}}
	b.objects = append(b.objects, ob)
	return ob
}

// Build returns the recipe. Structural mistakes a parser would reject are
// reported here; generator ranges are checked when the recipe is planned.
func (b *Builder) Build() (*domain.Recipe, error) {
	recipe := &domain.Recipe{Source: b.source, Options: append([]domain.Option(nil), b.options...)}

	seen := make(map[string]bool)
	for _, o := range b.options {
		if o.Name == "" {
			return nil, &domain.ValidationError{Reason: "option without a name"}
		}
		if seen[o.Name] {
			return nil, &domain.ValidationError{Reason: fmt.Sprintf("option %q declared twice", o.Name)}
		}
		seen[o.Name] = true
	}

	for _, ob := range b.objects {
		if ob.err != nil {
			return nil, ob.err
		}
		if ob.block.Object == "" {
			return nil, &domain.ValidationError{Reason: "object block without an object type"}
		}
		block := ob.block
		block.Fields = append([]domain.Field(nil), ob.block.Fields...)
		recipe.Blocks = append(recipe.Blocks, block)
	}
	return recipe, nil
}

// ObjectBuilder provides a fluent API for configuring a block.
type ObjectBuilder struct {
	block domain.ObjectBlock
	err   error
}

// Nickname names the block so references can target it.
func (o *ObjectBuilder) Nickname(name string) *ObjectBuilder {
	o.block.Nickname = name
	return o
}

// JustOnce marks the block to run at most once per just_once scope.
func (o *ObjectBuilder) JustOnce() *ObjectBuilder {
	o.block.JustOnce = true
	return o
}

// Count sets a literal instance count.
func (o *ObjectBuilder) Count(n int) *ObjectBuilder {
	o.block.Count = domain.FixedCount(n)
	return o
}

// CountBetween draws the count once per activation from [min, max].
func (o *ObjectBuilder) CountBetween(min, max int) *ObjectBuilder {
	o.block.Count = domain.CountSpec{Kind: domain.CountRandom, Range: &domain.NumberRange{Min: min, Max: max, Step: 1}}
	return o
}

// CountFrom evaluates a template (usually an option) for the count.
func (o *ObjectBuilder) CountFrom(template string) *ObjectBuilder {
	o.block.Count = domain.CountSpec{Kind: domain.CountTemplate, Template: template}
	return o
}

// Field appends a field. Fields are generated in the order they are added.
func (o *ObjectBuilder) Field(name string, spec domain.FieldSpec) *ObjectBuilder {
	for _, f := range o.block.Fields {
		if f.Name == name && o.err == nil {
			o.err = &domain.ValidationError{Object: o.block.Object, Nickname: o.block.Nickname, Field: name, Reason: "field declared twice"}
		}
	}
	o.block.Fields = append(o.block.Fields, domain.Field{Name: name, Spec: spec})
	return o
}

// Set appends a literal field.
func (o *ObjectBuilder) Set(name string, value any) *ObjectBuilder {
	return o.Field(name, domain.Literal(value))
}

// Fake appends a provider-backed field.
func (o *ObjectBuilder) Fake(name, provider string) *ObjectBuilder {
	return o.Field(name, domain.Fake(provider, nil))
}

// Ref appends a reference to the most recent record of target.
func (o *ObjectBuilder) Ref(name, target string) *ObjectBuilder {
	return o.Field(name, domain.Reference(target))
}

// Block returns the configured block.
func (o *ObjectBuilder) Block() domain.ObjectBlock {
	return o.block
}

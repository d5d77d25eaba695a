package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Parser converts recipe documents into domain.Recipe values.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a recipe file. The recipe Source is the file name.
func (p *Parser) ParseFile(path string) (*domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	recipe, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	recipe.Source = filepath.Base(path)
	return recipe, nil
}

// Parse decodes a recipe document.
// Structural problems return *domain.ParseError; well-formed blocks with bad
// generator specs return *domain.ValidationError.
func (p *Parser) Parse(data []byte) (*domain.Recipe, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ParseError{Msg: "invalid YAML", Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &domain.ParseError{Msg: "recipe is empty"}
	}

	root := deref(doc.Content[0])
	if root.Kind != yaml.SequenceNode {
		return nil, &domain.ParseError{Line: root.Line, Msg: "recipe must be a list of object blocks"}
	}

	recipe := &domain.Recipe{}
	for _, item := range root.Content {
		item = deref(item)
		if item.Kind != yaml.MappingNode {
			return nil, &domain.ParseError{Line: item.Line, Msg: "each recipe entry must be a mapping"}
		}

		keys := mappingKeys(item)
		switch {
		case keys["option"] != nil:
			opt, err := parseOption(item)
			if err != nil {
				return nil, err
			}
			recipe.Options = append(recipe.Options, opt)
		case keys["object"] != nil:
			block, err := parseBlock(item)
			if err != nil {
				return nil, err
			}
			recipe.Blocks = append(recipe.Blocks, block)
		default:
			return nil, &domain.ParseError{Line: item.Line, Msg: "entry needs an 'object' or 'option' key"}
		}
	}

	return recipe, nil
}

func parseOption(node *yaml.Node) (domain.Option, error) {
	opt := domain.Option{Line: node.Line}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], deref(node.Content[i+1])
		switch key.Value {
		case "option":
			if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
				return opt, &domain.ParseError{Line: val.Line, Msg: "option name must be a non-empty string"}
			}
			opt.Name = val.Value
		case "default":
			if err := val.Decode(&opt.Default); err != nil {
				return opt, &domain.ParseError{Line: val.Line, Msg: "invalid option default", Err: err}
			}
		default:
			return opt, &domain.ParseError{Line: key.Line, Msg: fmt.Sprintf("unknown option key %q", key.Value)}
		}
	}
	return opt, nil
}

func parseBlock(node *yaml.Node) (domain.ObjectBlock, error) {
	block := domain.ObjectBlock{Line: node.Line, Count: domain.FixedCount(1)}

	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], deref(node.Content[i+1])
		switch key.Value {
		case "object":
			if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
				return block, &domain.ParseError{Line: val.Line, Msg: "object must be a non-empty string"}
			}
			block.Object = val.Value
		case "nickname":
			if val.Kind != yaml.ScalarNode || strings.TrimSpace(val.Value) == "" {
				return block, &domain.ParseError{Line: val.Line, Msg: "nickname must be a non-empty string"}
			}
			block.Nickname = val.Value
		case "just_once":
			if err := val.Decode(&block.JustOnce); err != nil {
				return block, &domain.ParseError{Line: val.Line, Msg: "just_once must be a boolean", Err: err}
			}
		case "count":
			count, err := parseCount(val)
			if err != nil {
				return block, err
			}
			block.Count = count
		case "fields":
			// handled below, once object and nickname are known for error context
		default:
			return block, &domain.ParseError{Line: key.Line, Msg: fmt.Sprintf("unknown block key %q", key.Value)}
		}
	}

	fields := mappingKeys(node)["fields"]
	if fields == nil {
		return block, nil
	}
	fields = deref(fields)
	if fields.Kind == yaml.ScalarNode && fields.Tag == "!!null" {
		return block, nil
	}
	if fields.Kind != yaml.MappingNode {
		return block, &domain.ParseError{Line: fields.Line, Msg: fmt.Sprintf("fields of %s must be a mapping", block.Object)}
	}

	seen := make(map[string]bool)
	for i := 0; i < len(fields.Content); i += 2 {
		key, val := fields.Content[i], fields.Content[i+1]
		name := key.Value
		if seen[name] {
			return block, &domain.ValidationError{
				Object: block.Object, Nickname: block.Nickname, Field: name, Line: key.Line,
				Reason: "field declared twice",
			}
		}
		seen[name] = true

		spec, err := parseFieldSpec(val)
		if err != nil {
			return block, annotate(err, block, name, key.Line)
		}
		block.Fields = append(block.Fields, domain.Field{Name: name, Spec: spec, Line: key.Line})
	}
	return block, nil
}

func parseCount(node *yaml.Node) (domain.CountSpec, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" && strings.Contains(node.Value, placeholderOpen) {
			return domain.CountSpec{Kind: domain.CountTemplate, Template: node.Value}, nil
		}
		var n int
		if err := node.Decode(&n); err != nil {
			return domain.CountSpec{}, &domain.ParseError{Line: node.Line, Msg: "count must be an integer, a template, or a random_number", Err: err}
		}
		if n < 0 {
			return domain.CountSpec{}, &domain.ValidationError{Line: node.Line, Reason: fmt.Sprintf("count must not be negative, got %d", n)}
		}
		return domain.FixedCount(n), nil
	case yaml.MappingNode:
		spec, err := parseFieldSpec(node)
		if err != nil {
			return domain.CountSpec{}, err
		}
		if spec.Kind != domain.KindRandomNumber {
			return domain.CountSpec{}, &domain.ValidationError{Line: node.Line, Reason: "count generator must be random_number"}
		}
		return domain.CountSpec{Kind: domain.CountRandom, Range: spec.Range}, nil
	default:
		return domain.CountSpec{}, &domain.ParseError{Line: node.Line, Msg: "count must be an integer, a template, or a random_number"}
	}
}

// annotate adds block and field context to errors raised while parsing a field.
func annotate(err error, block domain.ObjectBlock, field string, line int) error {
	switch e := err.(type) {
	case *domain.ValidationError:
		e.Object, e.Nickname, e.Field = block.Object, block.Nickname, field
		if e.Line == 0 {
			e.Line = line
		}
		return e
	default:
		return err
	}
}

func mappingKeys(node *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out
}

func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

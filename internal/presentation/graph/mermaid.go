package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	// Skipped holds aliases of just_once blocks a run skipped.
	Skipped []string
	// Counts holds records produced per object type.
	Counts map[string]int
}

// GenerateMermaid produces a Mermaid flowchart of a recipe: one node per
// block in declaration order, one edge per reference field.
// Shapes:
// - just_once: ((Circle))
// - generated count: [[Subroutine]]
// - Default: [Rectangle]
// References to a block declared later are drawn dotted; they fail at run time.
func GenerateMermaid(recipe *domain.Recipe, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, block := range recipe.Blocks {
		opener, closer := "[", "]"
		switch {
		case block.JustOnce:
			opener, closer = "((", "))"
		case block.Count.Kind == domain.CountRandom || block.Count.Kind == domain.CountTemplate:
			opener, closer = "[[", "]]"
		}

		label := escape(block.Object)
		if block.Nickname != "" && block.Nickname != block.Object {
			label += " <br/> " + escape(block.Nickname)
		}
		if c := countLabel(block.Count); c != "" {
			label += " <br/> × " + escape(c)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(i, block), opener, label, closer)

		for _, f := range block.Fields {
			for _, target := range referenceTargets(f.Spec) {
				to, backward := resolve(recipe, i, target)
				if to < 0 {
					missing := "missing_" + sanitizeMermaidID(target)
					fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s{{\"%s ?\"}}\n", nodeID(i, block), escape(f.Name), missing, escape(target))
					continue
				}
				arrow := fmt.Sprintf("-- \"%s\" -->", escape(f.Name))
				if !backward {
					arrow = fmt.Sprintf("-. \"%s\" .->", escape(f.Name))
				}
				fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(i, block), arrow, nodeID(to, recipe.Blocks[to]))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#000;\n")
		sb.WriteString("    classDef produced fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		skipped := make(map[string]bool)
		for _, alias := range overlay.Skipped {
			skipped[alias] = true
		}
		for i, block := range recipe.Blocks {
			switch {
			case skipped[block.Alias()]:
				fmt.Fprintf(&sb, "    class %s skipped;\n", nodeID(i, block))
			case overlay.Counts[block.Object] > 0:
				fmt.Fprintf(&sb, "    class %s produced;\n", nodeID(i, block))
			}
		}
	}

	return sb.String()
}

// resolve finds the block a reference at position from points to, following
// run-time lookup: latest earlier nickname, then latest earlier object type.
// backward is false when only a later block matches.
func resolve(recipe *domain.Recipe, from int, target string) (int, bool) {
	for _, byNickname := range []bool{true, false} {
		for i := from - 1; i >= 0; i-- {
			if matches(recipe.Blocks[i], target, byNickname) {
				return i, true
			}
		}
	}
	for _, byNickname := range []bool{true, false} {
		for i := from; i < len(recipe.Blocks); i++ {
			if matches(recipe.Blocks[i], target, byNickname) {
				return i, false
			}
		}
	}
	return -1, false
}

func matches(b domain.ObjectBlock, target string, byNickname bool) bool {
	if byNickname {
		return b.Nickname == target
	}
	return b.Object == target
}

func referenceTargets(spec domain.FieldSpec) []string {
	if target, ok := spec.ReferenceTarget(); ok {
		return []string{target}
	}
	var out []string
	for _, c := range spec.Choices {
		out = append(out, referenceTargets(c.Pick)...)
	}
	return out
}

func countLabel(c domain.CountSpec) string {
	switch c.Kind {
	case domain.CountLiteral:
		if c.Value != 1 {
			return strconv.Itoa(c.Value)
		}
	case domain.CountRandom:
		if c.Range != nil {
			return fmt.Sprintf("%d..%d", c.Range.Min, c.Range.Max)
		}
	case domain.CountTemplate:
		return strings.TrimSpace(c.Template)
	}
	return ""
}

func nodeID(index int, b domain.ObjectBlock) string {
	return fmt.Sprintf("b%d_%s", index, sanitizeMermaidID(b.Alias()))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/seedbed/internal/presentation/graph"
	"github.com/aretw0/seedbed/pkg/domain"
)

func block(object, nickname string, fields ...domain.Field) domain.ObjectBlock {
	return domain.ObjectBlock{Object: object, Nickname: nickname, Count: domain.FixedCount(1), Fields: fields}
}

func ref(name, target string) domain.Field {
	return domain.Field{Name: name, Spec: domain.Reference(target)}
}

func TestGenerateMermaid(t *testing.T) {
	justOnce := block("Account", "bluth_co")
	justOnce.JustOnce = true

	counted := block("Opportunity", "")
	counted.Count = domain.CountSpec{Kind: domain.CountRandom, Range: &domain.NumberRange{Min: 3, Max: 5}}

	tests := []struct {
		name     string
		blocks   []domain.ObjectBlock
		contains []string
	}{
		{
			name:   "Just Once Shape",
			blocks: []domain.ObjectBlock{justOnce},
			contains: []string{
				`b0_bluth_co(("Account <br/> bluth_co"))`,
			},
		},
		{
			name:   "Generated Count Shape",
			blocks: []domain.ObjectBlock{counted},
			contains: []string{
				`b0_Opportunity[["Opportunity <br/> × 3..5"]]`,
			},
		},
		{
			name: "Backward Reference",
			blocks: []domain.ObjectBlock{
				block("Account", "bluth_co"),
				block("Contact", "", ref("AccountId", "bluth_co")),
			},
			contains: []string{
				`b1_Contact -- "AccountId" --> b0_bluth_co`,
			},
		},
		{
			name: "Forward Reference Is Dotted",
			blocks: []domain.ObjectBlock{
				block("Contact", "", ref("AccountId", "Account")),
				block("Account", ""),
			},
			contains: []string{
				`b0_Contact -. "AccountId" .-> b1_Account`,
			},
		},
		{
			name: "Missing Target",
			blocks: []domain.ObjectBlock{
				block("Contact", "", ref("AccountId", "ghost-co")),
			},
			contains: []string{
				`missing_ghost_co{{"ghost-co ?"}}`,
			},
		},
		{
			name: "Nickname Wins Over Object Type",
			blocks: []domain.ObjectBlock{
				block("Contact", "Michael"),
				block("Account", "Contact"),
				block("Opportunity", "", ref("ContactId", "Contact")),
			},
			contains: []string{
				`b2_Opportunity -- "ContactId" --> b1_Contact`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(&domain.Recipe{Blocks: tt.blocks}, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	recipe := &domain.Recipe{Blocks: []domain.ObjectBlock{
		block("Account", "bluth_co"),
		block("Opportunity", ""),
	}}

	got := graph.GenerateMermaid(recipe, &graph.GraphOverlay{
		Skipped: []string{"bluth_co"},
		Counts:  map[string]int{"Opportunity": 2},
	})

	for _, want := range []string{"class b0_bluth_co skipped;", "class b1_Opportunity produced;"} {
		if !strings.Contains(got, want) {
			t.Errorf("Overlay missing %q in:\n%s", want, got)
		}
	}
}

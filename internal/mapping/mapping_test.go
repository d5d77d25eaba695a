package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func recipe(t *testing.T) *domain.Recipe {
	t.Helper()
	b := dsl.New("bluth")
	b.Object("Account").Nickname("bluth_co").Set("Name", "The Bluth Company")
	b.Object("Contact").Nickname("Michael").
		Set("FirstName", "Michael").
		Ref("AccountId", "bluth_co")
	b.Object("Contact").
		Set("FirstName", "Gob").
		Set("Title", "Magician").
		Ref("AccountId", "bluth_co").
		Field("ReportsToId", domain.RandomChoice(
			domain.Choice{Probability: 1, Pick: domain.Reference("Michael")},
			domain.Choice{Probability: 1, Pick: domain.Reference("Contact")},
		))
	r, err := b.Build()
	require.NoError(t, err)
	return r
}

func TestInfer(t *testing.T) {
	m := Infer(recipe(t))

	require.Len(t, m.Steps, 2)
	assert.Equal(t, "Account", m.Steps[0].Object)
	assert.Equal(t, []string{"Name"}, m.Steps[0].Fields)

	contact := m.Steps[1]
	assert.Equal(t, []string{"FirstName", "Title"}, contact.Fields)
	assert.Equal(t, []Lookup{
		{Field: "AccountId", Table: "Account"},
		{Field: "ReportsToId", Table: "Contact"},
	}, contact.Lookups)
}

func TestInfer_MixedChoiceIsAField(t *testing.T) {
	b := dsl.New("")
	b.Object("Account").Nickname("a")
	b.Object("Contact").Field("Owner", domain.RandomChoice(
		domain.Choice{Probability: 1, Pick: domain.Reference("a")},
		domain.Choice{Probability: 1, Pick: domain.Literal("nobody")},
	))
	r, err := b.Build()
	require.NoError(t, err)

	m := Infer(r)
	assert.Equal(t, []string{"Owner"}, m.Steps[1].Fields)
	assert.Empty(t, m.Steps[1].Lookups)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yml")
	require.NoError(t, WriteFile(path, recipe(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `Insert Account:
    sf_object: Account
    table: Account
    fields:
        - Name
Insert Contact:
    sf_object: Contact
    table: Contact
    fields:
        - FirstName
        - Title
    lookups:
        AccountId:
            table: Account
        ReportsToId:
            table: Contact
`
	assert.Equal(t, want, string(data))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "Insert Contact")
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/seedbed/internal/adapters/file"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunValidate(writeRecipe(t), &out))
	assert.Contains(t, out.String(), "Recipe is valid!")

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte(`
- object: Contact
  fields:
    AccountId:
      reference: Account
- object: Account
`), 0644))

	out.Reset()
	err := RunValidate(bad, &out)
	assert.ErrorIs(t, err, ErrInvalidRecipe)
	assert.Contains(t, out.String(), "Contact.AccountId")

	assert.Error(t, RunValidate(filepath.Join(t.TempDir(), "missing.yml"), &out))
}

func TestRunGraph(t *testing.T) {
	recipe := writeRecipe(t)

	var out bytes.Buffer
	require.NoError(t, RunGraph(context.Background(), recipe, GraphOptions{}, &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), `b1_Opportunity -- "AccountId" --> b0_bluth_co`)
	assert.NotContains(t, out.String(), "classDef")

	// Overlay against a session where the account already exists.
	state := domain.NewSession("cont")
	state.Satisfied["bluth_co"] = true
	state.Carried = []domain.RecordHandle{{ObjectType: "Account", Nickname: "bluth_co", ID: 1}}
	state.Sequences["Account"] = 1
	cont := filepath.Join(t.TempDir(), "cont.json")
	require.NoError(t, file.WriteSession(cont, state))

	out.Reset()
	require.NoError(t, RunGraph(context.Background(), recipe, GraphOptions{ContinuationFile: cont}, &out))
	assert.Contains(t, out.String(), "class b0_bluth_co skipped;")
	assert.Contains(t, out.String(), "class b1_Opportunity produced;")
}

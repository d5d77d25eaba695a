package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVars(t *testing.T) {
	vars, err := ParseVars("num_accounts:5, company : Bluth ,empty:")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"num_accounts": "5", "company": "Bluth", "empty": ""}, vars)

	vars, err = ParseVars("  ")
	require.NoError(t, err)
	assert.Empty(t, vars)

	vars, err = ParseVars("url:http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", vars["url"], "only the first colon separates")

	for _, bad := range []string{"novalue", ":5", "a:1,,b:2"} {
		_, err := ParseVars(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestSanitizeValue_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", DefaultMaxVarSize - 1, false},
		{"Exact Limit", DefaultMaxVarSize, false},
		{"Over Limit", DefaultMaxVarSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeValue(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVarTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeValue_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Bluth Company", "Bluth Company"},
		{"Safe Controls", "a\nb\tc", "a\nb\tc"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeValue_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxVarSize, "10")

	_, err := SanitizeValue("12345678901")
	assert.Error(t, err)

	_, err = SanitizeValue("12345")
	assert.NoError(t, err)
}

func TestSanitizeVars(t *testing.T) {
	out, err := SanitizeVars(map[string]any{"n": 3, "name": "Bluth\x07"})
	require.NoError(t, err)
	assert.Equal(t, 3, out["n"])
	assert.Equal(t, "Bluth", out["name"])

	_, err = SanitizeVars(map[string]any{"bad": "\xbd\xb2"})
	assert.True(t, errors.Is(err, ErrInvalidUTF8))
}

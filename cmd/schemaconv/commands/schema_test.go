package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config", "report"} {
		cmd := NewSchemaCommand()

		var out bytes.Buffer

		cmd.SetOut(&out)
		cmd.SetArgs([]string{name})

		require.NoError(t, cmd.Execute(), name)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), name)
		assert.Equal(t, "object", decoded["type"], name)
	}
}

func TestSchemaCommand_Unknown(t *testing.T) {
	t.Parallel()

	cmd := NewSchemaCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"plugins"})

	require.ErrorIs(t, cmd.Execute(), ErrUnknownSchema)
}

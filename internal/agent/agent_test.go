package agent

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnodes/nodeflow/internal/values"
)

func TestParseArgsDefaults(t *testing.T) {
	args, err := ParseArgs(values.String("gpt-4o-mini"), values.None(), values.None())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", args.Model)
	assert.Equal(t, float32(1.0), args.Temperature)
	assert.Empty(t, args.Functions)
}

func TestParseArgsTemperatureAndFunctions(t *testing.T) {
	params := values.Object(map[string]values.DataValue{
		"type": values.String("object"),
	})
	fn := values.Object(map[string]values.DataValue{
		"name":        values.String("lookup"),
		"description": values.String("look something up"),
		"parameters":  params,
	})
	args, err := ParseArgs(values.String("gpt-4o"), values.Array([]values.DataValue{fn}), values.Float(0.2))
	require.NoError(t, err)
	assert.Equal(t, float32(0.2), args.Temperature)
	require.Len(t, args.Functions, 1)
	assert.Equal(t, "lookup", args.Functions[0].Name)
	assert.Equal(t, "look something up", args.Functions[0].Description)
}

func TestParseArgsRejectsNonStringModel(t *testing.T) {
	_, err := ParseArgs(values.Integer(1), values.None(), values.None())
	assert.Error(t, err)
}

func TestResolveAPIKeyPrefersConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	assert.Equal(t, "from-config", ResolveAPIKey("from-config"))
	assert.Equal(t, "from-env", ResolveAPIKey(""))
}

func TestResolveAPIKeyEmpty(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	assert.Equal(t, "", ResolveAPIKey(""))
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI("", Args{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

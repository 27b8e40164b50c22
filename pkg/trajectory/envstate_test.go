package trajectory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEnvState(t *testing.T) {
	page := `<html><head><title>Finish</title></head>
<body><h1>Done</h1><pre>{"orders": [<span>1</span>, 2]}</pre><pre>second</pre></body></html>`

	raw, ok, err := ExtractEnvState(strings.NewReader(page))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"orders": [1, 2]}`, raw)

	a := NewFinalAnswer()
	a.SetEnvState(raw)
	assert.Equal(t, `{"orders":[1,2]}`, a.EnvStateJSON)
}

func TestExtractEnvStateWithoutPre(t *testing.T) {
	raw, ok, err := ExtractEnvState(strings.NewReader(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, raw)
}

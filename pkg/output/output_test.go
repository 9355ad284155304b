package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	buf := &bytes.Buffer{}
	prev := Writer
	Writer = buf
	t.Cleanup(func() { Writer = prev })
	return buf
}

func TestPrintListText(t *testing.T) {
	buf := capture(t)
	viper.Set("output.format", "text")

	require.NoError(t, PrintList("Reels", nil, []string{"ID", "LIKES"}, [][]string{{"r1", "3"}}))
	assert.Contains(t, buf.String(), "Reels")
	assert.Contains(t, buf.String(), "r1")
}

func TestPrintListJSON(t *testing.T) {
	buf := capture(t)
	viper.Set("output.format", "json")
	t.Cleanup(func() { viper.Set("output.format", "text") })

	require.NoError(t, PrintList("", []map[string]int{{"likes": 3}}, nil, nil))
	assert.Contains(t, buf.String(), `"likes": 3`)
}

func TestValidateOutputFormat(t *testing.T) {
	assert.True(t, ValidateOutputFormat("json"))
	assert.False(t, ValidateOutputFormat("yaml"))
}

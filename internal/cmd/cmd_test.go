package cmd

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/sidechain/reels/internal/devserver"
	"github.com/zfogg/sidechain/reels/pkg/output"
)

// execute runs the root command against a config file in a temp dir and
// returns what was printed.
func execute(t *testing.T, configBody string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(configBody), 0600))

	color.NoColor = true
	buf := &bytes.Buffer{}
	prev := output.Writer
	output.Writer = buf
	t.Cleanup(func() { output.Writer = prev })

	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestPersonalizeCommand(t *testing.T) {
	dir := t.TempDir()
	prefsFile := filepath.Join(dir, "prefs.json")
	cfg := fmt.Sprintf("[prefs]\nfile = %q\n", prefsFile)

	out, err := execute(t, cfg, "personalize", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "showing latest")

	data, err := os.ReadFile(prefsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reels.personalized": false`)

	out, err = execute(t, cfg, "personalize")
	require.NoError(t, err)
	assert.Contains(t, out, "Personalized feed: off")

	_, err = execute(t, cfg, "personalize", "maybe")
	assert.Error(t, err)
}

func TestFeedCommandAgainstDevServer(t *testing.T) {
	srv := devserver.New(devserver.Options{Items: 8, Seed: 3})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	dir := t.TempDir()
	cfg := fmt.Sprintf("[api]\nbase_url = %q\n[feed]\npage_size = 4\n[prefs]\nfile = %q\n", ts.URL, filepath.Join(dir, "prefs.json"))

	out, err := execute(t, cfg, "--output", "table", "feed", "--category", "dance")
	require.NoError(t, err)
	assert.Contains(t, out, "Reels: for-you/dance")

	first, _ := srv.Store().Page(true, "", 1, 1)
	out, err = execute(t, cfg, "like", first[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Liked "+first[0].ID)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "", "--output", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
	outputFmt = "text"
}

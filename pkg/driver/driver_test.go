package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsNoArgumentsDefaultsToREPL(t *testing.T) {
	cfg, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.True(t, cfg.REPL)
}

func TestParseArgsFilePathStopsOptionParsing(t *testing.T) {
	cfg, err := ParseArgs([]string{"--silent", "main.csp", "--dump-ast", "one"})
	require.NoError(t, err)
	assert.True(t, cfg.Silent)
	assert.Equal(t, "main.csp", cfg.FilePath)
	assert.False(t, cfg.DumpAST, "tokens after the file path are script args, not options")
	assert.Equal(t, []string{"main.csp", "--dump-ast", "one"}, cfg.ScriptArgs)
	assert.False(t, cfg.REPL)
}

func TestParseArgsLogPathConsumesNextToken(t *testing.T) {
	cfg, err := ParseArgs([]string{"--log-path", "out.log", "main.csp"})
	require.NoError(t, err)
	assert.Equal(t, "out.log", cfg.LogPath)
	assert.Equal(t, "main.csp", cfg.FilePath)
}

func TestParseArgsImportPathConsumesNextToken(t *testing.T) {
	cfg, err := ParseArgs([]string{"--import-path", "/opt/lib", "main.csp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/lib"}, cfg.ImportPathExtra)
}

func TestParseArgsMissingLogPathValueIsAnError(t *testing.T) {
	_, err := ParseArgs([]string{"--log-path"})
	assert.Error(t, err)
}

func TestParseArgsArgsFlagStopsParsingEarly(t *testing.T) {
	cfg, err := ParseArgs([]string{"--args", "--silent", "foo"})
	require.NoError(t, err)
	assert.True(t, cfg.REPL)
	assert.Equal(t, []string{"--silent", "foo"}, cfg.ScriptArgs)
}

func TestParseArgsBooleanFlagSetTwiceIsAnError(t *testing.T) {
	_, err := ParseArgs([]string{"--silent", "--silent"})
	assert.Error(t, err)
}

func TestParseArgsUnknownFlagIsAnError(t *testing.T) {
	_, err := ParseArgs([]string{"--nonexistent"})
	assert.Error(t, err)
}

func TestParseArgsShortFlagsWork(t *testing.T) {
	cfg, err := ParseArgs([]string{"-s", "-d", "main.csp"})
	require.NoError(t, err)
	assert.True(t, cfg.Silent)
	assert.True(t, cfg.DumpAST)
}

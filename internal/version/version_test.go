package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfoDefaults(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Contains(t, info.String(), "sqltrim dev")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc1234", shortCommit("abc1234def5678"))
	assert.Equal(t, "abc", shortCommit("abc"))
}

func TestInfoJSON(t *testing.T) {
	out, err := GetInfo().JSON()
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "dev", decoded["version"])
	assert.Contains(t, decoded, "gitBranch")
}

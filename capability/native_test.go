package capability_test

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/capability"
)

const baseGrants = `
[
	{
		"Token": "admin",
		"Relations": ["*"],
		"Permissions": ["register", "push", "drain"]
	},
	{
		"Token": "ingest-only",
		"Relations": ["edge", "node"],
		"Permissions": ["push"]
	},
	{
		"Token": "no-permissions",
		"Relations": ["edge"]
	}
]`

const duplicateTokens = `
[
	{ "Token": "x", "Relations": ["*"] },
	{ "Token": "x", "Relations": ["*"] }
]`

const badPermission = `
[
	{ "Token": "x", "Relations": ["*"], "Permissions": ["fly"] }
]`

func writeGrantFile(t *testing.T, contents string) string {
	t.Helper()
	tmp, err := ioutil.TempFile("", "grants-*.json")
	require.NoError(t, err)
	_, err = tmp.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	t.Cleanup(func() { os.Remove(tmp.Name()) })
	return tmp.Name()
}

func TestNativeFileGrantsScopedPermissions(t *testing.T) {
	require := require.New(t)
	path := writeGrantFile(t, baseGrants)
	gate, err := capability.NewNativeFile(path)
	require.NoError(err)

	require.NoError(gate.Allowed("admin", "path", capability.AllPermissions))
	require.NoError(gate.Allowed("ingest-only", "edge", capability.PushPerm))
	require.Error(gate.Allowed("ingest-only", "edge", capability.DrainPerm))
	require.Error(gate.Allowed("ingest-only", "other", capability.PushPerm))
	require.Error(gate.Allowed("no-permissions", "edge", capability.PushPerm))
	require.Error(gate.Allowed("unknown-token", "edge", capability.PushPerm))
}

func TestNativeFileRejectsDuplicateToken(t *testing.T) {
	path := writeGrantFile(t, duplicateTokens)
	_, err := capability.NewNativeFile(path)
	require.Error(t, err)
	require.True(t, capability.ErrParseGrantFile.Is(err))
}

func TestNativeFileRejectsUnknownPermission(t *testing.T) {
	path := writeGrantFile(t, badPermission)
	_, err := capability.NewNativeFile(path)
	require.Error(t, err)
}

func TestNewNativeSingleGrantsEveryRelation(t *testing.T) {
	require := require.New(t)
	gate := capability.NewNativeSingle("tok", capability.PushPerm|capability.DrainPerm)
	require.NoError(gate.Allowed("tok", "anything", capability.PushPerm))
	require.Error(gate.Allowed("tok", "anything", capability.RegisterPerm))
}

func TestOpenGrantsEverything(t *testing.T) {
	require := require.New(t)
	var gate capability.Open
	require.NoError(gate.Allowed("anyone", "anything", capability.AllPermissions))
}

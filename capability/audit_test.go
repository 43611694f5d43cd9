package capability_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rhizomedb/rhizome-go/capability"
)

func TestAuditLogsEveryCheck(t *testing.T) {
	require := require.New(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	gate := capability.NewAudit(capability.NewNativeSingle("tok", capability.PushPerm), capability.NewAuditLog(logger))

	require.NoError(gate.Allowed("tok", "edge", capability.PushPerm))
	require.Error(gate.Allowed("tok", "edge", capability.DrainPerm))

	entries := hook.AllEntries()
	require.Len(entries, 2)
	require.Equal(true, entries[0].Data["success"])
	require.Equal(false, entries[1].Data["success"])
}

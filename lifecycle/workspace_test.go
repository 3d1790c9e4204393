package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_Conversions(t *testing.T) {
	v := VersionOf(semver.MustParse("2.5.3"))
	assert.Equal(t, Version{Major: 2, Minor: 5, Patch: 3}, v)
	assert.Equal(t, "2.5.3", v.String())

	assert.Equal(t, 0, v.Compare(Version{Major: 2, Minor: 5, Patch: 3}))
	assert.Equal(t, -1, v.Compare(Version{Major: 2, Minor: 6}))
	assert.Equal(t, 1, v.Compare(Version{Major: 1, Minor: 9, Patch: 9}))
}

func TestWorkspaceInfo_Defaults(t *testing.T) {
	ws := &WorkspaceInfo{Workspace: "w1"}
	assert.Equal(t, ModeActive, ws.EffectiveMode())
	assert.Equal(t, float64(0), ws.ObservedProgress())

	p := 33.0
	ws = &WorkspaceInfo{Workspace: "w1", Mode: ModeCreating, Progress: &p}
	assert.Equal(t, ModeCreating, ws.EffectiveMode())
	assert.Equal(t, 33.0, ws.ObservedProgress())
}

func TestWorkspaceInfo_Decoding(t *testing.T) {
	raw := `{
		"workspace": "ws-alpha",
		"uuid": "7e4aa3ac-3b0f-4d0e-9c4d-8f27a2f0a001",
		"branding": "default",
		"version": {"major": 2, "minor": 4, "patch": 1},
		"mode": "archiving-pending-backup",
		"progress": 12.5
	}`
	var ws WorkspaceInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &ws))

	assert.Equal(t, "ws-alpha", ws.Workspace)
	assert.Equal(t, "default", ws.Branding)
	require.NotNil(t, ws.Version)
	assert.Equal(t, "2.4.1", ws.Version.String())
	assert.Equal(t, ModeArchivingPendingBackup, ws.Mode)
	assert.False(t, ws.Disabled)
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/netcrawl/discovery"
)

const testData = `{
  "R1": [
    {"hostname": "SW1", "ipAddress": "10.0.0.2", "localInterface": "Gi0/1", "remoteInterface": "Gi0/24", "capabilities": ["Switch"]}
  ],
  "SW1": [
    {"hostname": "R1", "ipAddress": "10.0.0.1", "localInterface": "Gi0/24", "remoteInterface": "Gi0/1", "capabilities": ["Router"]}
  ]
}`

func writeTestData(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "10.0.0.1-2024-05-17T13-04-05.json")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0o644))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTopologyCommandJSON(t *testing.T) {
	out, err := runRoot(t, "topology", "--data", writeTestData(t), "--format", "json")
	require.NoError(t, err)

	var topology discovery.Topology
	require.NoError(t, json.Unmarshal([]byte(out), &topology))
	assert.Equal(t, []discovery.DeviceKey{"R1", "SW1"}, topology.Nodes)
	require.Len(t, topology.Links, 1)
	assert.Equal(t, discovery.Link{
		SourceNode:      "R1",
		SourceInterface: "Gi0/1",
		TargetNode:      "SW1",
		TargetInterface: "Gi0/24",
	}, topology.Links[0])
}

func TestTopologyCommandNextUI(t *testing.T) {
	out, err := runRoot(t, "topology", "--data", writeTestData(t), "--format", "nextui")
	require.NoError(t, err)

	var topology discovery.NextUITopology
	require.NoError(t, json.Unmarshal([]byte(out), &topology))
	assert.Len(t, topology.Nodes, 2)
	assert.Len(t, topology.Links, 1)
}

func TestTopologyCommandDOT(t *testing.T) {
	out, err := runRoot(t, "topology", "--data", writeTestData(t), "--format", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, "graph topology {")
	assert.Contains(t, out, "R1")
}

func TestTopologyCommandErrors(t *testing.T) {
	_, err := runRoot(t, "topology", "--data", writeTestData(t), "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runRoot(t, "topology", "--data", filepath.Join(t.TempDir(), "missing.json"), "--format", "json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

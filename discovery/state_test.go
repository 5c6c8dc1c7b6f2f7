package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/netcrawl/common"
)

func assertStateInvariants(t *testing.T, state *crawlState) {
	t.Helper()
	for key := range state.visited {
		assert.True(t, state.discovered[key], "visited %v not discovered", key)
		_, hasData := state.data[key]
		assert.True(t, hasData, "visited %v has no data", key)
		_, inFrontier := state.frontier[key]
		assert.False(t, inFrontier, "visited %v still in frontier", key)
	}
	for key := range state.failed {
		assert.True(t, state.visited[key], "failed %v not visited", key)
	}
	assert.Len(t, state.data, len(state.visited))
	assert.Equal(t, 0, state.pending.len())
}

func TestReduceSeed(t *testing.T) {
	state := newCrawlState()
	state.pending.add(visitResult{
		Target: Target{IP: "10.0.0.1"},
		Key:    "R1",
		Neighbors: []common.NeighborRecord{
			router("R2", "10.0.0.2", "Gi0/1", "Gi0/2"),
			router("R3", "10.0.0.3", "Gi0/2", "Gi0/1"),
			router("R2", "10.0.0.2", "Gi0/3", "Gi0/4"),
		},
	})
	stats := state.reduce()

	assert.Equal(t, reduceStats{Results: 1, Discovered: 2}, stats)
	assert.Equal(t, map[DeviceKey]bool{"R1": true}, state.visited)
	assert.Equal(t, map[DeviceKey]bool{"R1": true, "R2": true, "R3": true}, state.discovered)
	assert.Equal(t, []Target{{IP: "10.0.0.2", Hostname: "R2"}, {IP: "10.0.0.3", Hostname: "R3"}}, state.frontierTargets())
	assert.Len(t, state.data["R1"], 3)
	assertStateInvariants(t, state)
}

func TestReduceRemovesQueuedAndResolvedKeys(t *testing.T) {
	state := newCrawlState()
	state.discovered["R1"] = true
	state.visited["R1"] = true
	state.data["R1"] = nil
	state.discovered["r2.example.net"] = true
	state.frontier["r2.example.net"] = Target{IP: "10.0.0.2", Hostname: "r2.example.net"}
	state.frontierOrder = []DeviceKey{"r2.example.net"}

	// The device reports a different hostname than its neighbor knew it by
	state.pending.add(visitResult{
		Target:    Target{IP: "10.0.0.2", Hostname: "r2.example.net"},
		Key:       "R2",
		Neighbors: []common.NeighborRecord{router("R1", "10.0.0.1", "Gi0/2", "Gi0/1")},
	})
	stats := state.reduce()

	assert.Equal(t, 0, stats.Discovered)
	assert.Empty(t, state.frontier)
	assert.Empty(t, state.frontierTargets())
	assert.True(t, state.visited["R2"])
	assert.True(t, state.discovered["R2"])
	assertStateInvariants(t, state)
}

func TestReduceFailure(t *testing.T) {
	state := newCrawlState()
	state.pending.add(visitResult{Target: Target{IP: "10.0.0.9"}, Key: "(10.0.0.9)", Neighbors: []common.NeighborRecord{}, Failed: true})
	state.reduce()

	assert.True(t, state.failed["(10.0.0.9)"])
	assert.True(t, state.visited["(10.0.0.9)"])
	assert.Empty(t, state.data["(10.0.0.9)"])
	assertStateInvariants(t, state)
}

func TestReduceDuplicateVisit(t *testing.T) {
	state := newCrawlState()
	first := []common.NeighborRecord{router("R2", "10.0.0.2", "Gi0/1", "Gi0/2")}
	second := []common.NeighborRecord{router("R3", "10.0.0.3", "Gi0/1", "Gi0/2")}
	state.pending.add(visitResult{Target: Target{IP: "10.0.0.1"}, Key: "R1", Neighbors: first})
	state.pending.add(visitResult{Target: Target{IP: "10.0.1.1"}, Key: "R1", Neighbors: second})
	stats := state.reduce()

	assert.Equal(t, 1, stats.Anomalies)
	assert.Equal(t, 1, state.anomalies)
	assert.Equal(t, first, state.data["R1"])
	assert.False(t, state.discovered["R3"])
	assertStateInvariants(t, state)
}

func TestSnapshotIsDetached(t *testing.T) {
	state := newCrawlState()
	state.pending.add(visitResult{
		Target:    Target{IP: "10.0.0.1"},
		Key:       "R1",
		Neighbors: []common.NeighborRecord{router("R2", "10.0.0.2", "Gi0/1", "Gi0/2")},
	})
	state.reduce()

	snapshot := state.snapshot()
	require.Len(t, snapshot.Data["R1"], 1)
	snapshot.Data["R1"][0].Hostname = "changed"
	snapshot.Unvisited["X"] = Target{}

	assert.Equal(t, "R2", state.data["R1"][0].Hostname)
	assert.NotContains(t, state.frontier, DeviceKey("X"))
	assert.Equal(t, []DeviceKey{"R1"}, snapshot.Visited)
	assert.Equal(t, []DeviceKey{"R1", "R2"}, snapshot.Discovered)
}

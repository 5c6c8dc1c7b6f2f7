package discovery

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/common"
)

// Target - A device to visit.
type Target struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
}

// Key - The speculative key of the target, before its session reports the real hostname.
func (target Target) Key() DeviceKey {
	return ResolveKey(target.IP, target.Hostname)
}

// visitResult - What a worker hands over to the reducer for one device.
type visitResult struct {
	Target    Target
	Key       DeviceKey
	Neighbors []common.NeighborRecord
	Failed    bool
}

// pendingResults - The only crawl structure written by workers.
type pendingResults struct {
	mutex   sync.Mutex
	results []visitResult
}

func (pending *pendingResults) add(result visitResult) {
	pending.mutex.Lock()
	defer pending.mutex.Unlock()
	pending.results = append(pending.results, result)
}

// drain - Take all buffered results, leaving the buffer empty.
func (pending *pendingResults) drain() []visitResult {
	pending.mutex.Lock()
	defer pending.mutex.Unlock()
	results := pending.results
	pending.results = nil
	return results
}

func (pending *pendingResults) len() int {
	pending.mutex.Lock()
	defer pending.mutex.Unlock()
	return len(pending.results)
}

// crawlState - Mutable discovery state of one run.
// Everything except pending is owned by the reducer and must never be touched by workers.
type crawlState struct {
	visited       map[DeviceKey]bool
	discovered    map[DeviceKey]bool
	frontier      map[DeviceKey]Target
	frontierOrder []DeviceKey
	failed        map[DeviceKey]bool
	data          map[DeviceKey][]common.NeighborRecord
	pending       pendingResults
	depth         int
	anomalies     int
}

func newCrawlState() *crawlState {
	return &crawlState{
		visited:    make(map[DeviceKey]bool),
		discovered: make(map[DeviceKey]bool),
		frontier:   make(map[DeviceKey]Target),
		failed:     make(map[DeviceKey]bool),
		data:       make(map[DeviceKey][]common.NeighborRecord),
	}
}

// reduceStats - Counters of one reduce pass.
type reduceStats struct {
	Results    int
	Discovered int
	Anomalies  int
}

// reduce - Fold all pending results into the state and extend the frontier.
// Single-threaded only.
func (state *crawlState) reduce() reduceStats {
	var stats reduceStats
	for _, result := range state.pending.drain() {
		stats.Results++
		delete(state.frontier, result.Target.Key())
		delete(state.frontier, result.Key)

		if state.visited[result.Key] {
			stats.Anomalies++
			state.anomalies++
			log.WithFields(log.Fields{
				"device":    result.Key,
				"device_ip": result.Target.IP,
			}).Error("Device visited twice, discarding duplicate result")
			continue
		}
		if !state.discovered[result.Key] {
			// The seed, or a device whose neighbors knew it by another name
			log.WithFields(log.Fields{
				"device":    result.Key,
				"queued_as": result.Target.Key(),
				"device_ip": result.Target.IP,
			}).Debug("Visited device was not discovered under its own key")
			state.discovered[result.Key] = true
		}
		state.visited[result.Key] = true
		state.data[result.Key] = result.Neighbors
		if result.Failed {
			state.failed[result.Key] = true
		}

		log.WithFields(log.Fields{
			"device":         result.Key,
			"neighbor_count": len(result.Neighbors),
		}).Debug("Processing neighbors")
		for _, neighbor := range result.Neighbors {
			target := Target{IP: neighbor.IPAddress, Hostname: neighbor.Hostname}
			neighborKey := target.Key()
			if state.visited[neighborKey] {
				log.WithFields(log.Fields{
					"device":   result.Key,
					"neighbor": neighborKey,
				}).Trace("Neighbor already visited")
				continue
			}
			if state.discovered[neighborKey] {
				log.WithFields(log.Fields{
					"device":   result.Key,
					"neighbor": neighborKey,
				}).Trace("Neighbor already discovered, waiting to be visited")
				continue
			}
			log.WithFields(log.Fields{
				"device":   result.Key,
				"neighbor": neighborKey,
			}).Info("Discovered new neighbor")
			state.discovered[neighborKey] = true
			state.frontier[neighborKey] = target
			state.frontierOrder = append(state.frontierOrder, neighborKey)
			stats.Discovered++
		}
	}
	state.compactFrontierOrder()
	return stats
}

// Drop keys which have left the frontier from the ordering.
func (state *crawlState) compactFrontierOrder() {
	order := state.frontierOrder[:0]
	seen := make(map[DeviceKey]bool, len(state.frontier))
	for _, key := range state.frontierOrder {
		if _, found := state.frontier[key]; found && !seen[key] {
			order = append(order, key)
			seen[key] = true
		}
	}
	state.frontierOrder = order
}

// frontierTargets - The frontier in discovery order.
func (state *crawlState) frontierTargets() []Target {
	targets := make([]Target, 0, len(state.frontier))
	for _, key := range state.frontierOrder {
		if target, found := state.frontier[key]; found {
			targets = append(targets, target)
		}
	}
	return targets
}

// StateSnapshot - Immutable copy of the crawl state, with sorted key lists.
type StateSnapshot struct {
	Visited    []DeviceKey                           `json:"visited"`
	Discovered []DeviceKey                           `json:"discovered"`
	Failed     []DeviceKey                           `json:"failed"`
	Unvisited  map[DeviceKey]Target                  `json:"unvisited"`
	Data       map[DeviceKey][]common.NeighborRecord `json:"-"`
	Depth      int                                   `json:"depth"`
	Anomalies  int                                   `json:"anomalies"`
}

func (state *crawlState) snapshot() StateSnapshot {
	snapshot := StateSnapshot{
		Visited:    sortedKeys(state.visited),
		Discovered: sortedKeys(state.discovered),
		Failed:     sortedKeys(state.failed),
		Unvisited:  make(map[DeviceKey]Target, len(state.frontier)),
		Data:       make(map[DeviceKey][]common.NeighborRecord, len(state.data)),
		Depth:      state.depth,
		Anomalies:  state.anomalies,
	}
	for key, target := range state.frontier {
		snapshot.Unvisited[key] = target
	}
	for key, neighbors := range state.data {
		copied := make([]common.NeighborRecord, len(neighbors))
		copy(copied, neighbors)
		snapshot.Data[key] = copied
	}
	return snapshot
}

func sortedKeys(set map[DeviceKey]bool) []DeviceKey {
	keys := make([]DeviceKey, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

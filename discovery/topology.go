package discovery

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/common"
)

// Link - A connection between two device interfaces.
type Link struct {
	SourceNode      DeviceKey `json:"sourceNode"`
	SourceInterface string    `json:"sourceInterface"`
	TargetNode      DeviceKey `json:"targetNode"`
	TargetInterface string    `json:"targetInterface"`
}

// Reverse - The same link as seen from the other end.
func (link Link) Reverse() Link {
	return Link{
		SourceNode:      link.TargetNode,
		SourceInterface: link.TargetInterface,
		TargetNode:      link.SourceNode,
		TargetInterface: link.SourceInterface,
	}
}

// Topology - Deduplicated node/link graph.
type Topology struct {
	Nodes []DeviceKey `json:"nodes"`
	Links []Link      `json:"links"`
}

// Unordered node pair.
type nodePair struct {
	a DeviceKey
	b DeviceKey
}

func newNodePair(x DeviceKey, y DeviceKey) nodePair {
	if y < x {
		x, y = y, x
	}
	return nodePair{a: x, b: y}
}

// BuildTopology - Build the topology from per-device neighbor lists.
// Both ends of a link usually report it, only the first report is kept.
// Devices are processed in key order so the output is deterministic.
func BuildTopology(data map[DeviceKey][]common.NeighborRecord) Topology {
	log.WithField("device_count", len(data)).Info("Building topology")

	devices := make([]DeviceKey, 0, len(data))
	for device := range data {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })

	topology := Topology{
		Nodes: []DeviceKey{},
		Links: []Link{},
	}
	knownNodes := make(map[DeviceKey]bool)
	addNode := func(node DeviceKey) {
		if !knownNodes[node] {
			knownNodes[node] = true
			topology.Nodes = append(topology.Nodes, node)
		}
	}
	linksByPair := make(map[nodePair][]Link)

	for _, device := range devices {
		addNode(device)
		for _, neighbor := range data[device] {
			link := Link{
				SourceNode:      device,
				SourceInterface: neighbor.LocalInterface,
				TargetNode:      ResolveKey(neighbor.IPAddress, neighbor.Hostname),
				TargetInterface: neighbor.RemoteInterface,
			}
			addNode(link.TargetNode)

			pair := newNodePair(link.SourceNode, link.TargetNode)
			if containsLink(linksByPair[pair], link) {
				continue
			}
			linksByPair[pair] = append(linksByPair[pair], link)
			topology.Links = append(topology.Links, link)
		}
	}

	log.WithFields(log.Fields{
		"node_count": len(topology.Nodes),
		"link_count": len(topology.Links),
	}).Info("Built topology")
	return topology
}

func containsLink(links []Link, link Link) bool {
	reverse := link.Reverse()
	for _, existing := range links {
		if existing == link || existing == reverse {
			return true
		}
	}
	return false
}

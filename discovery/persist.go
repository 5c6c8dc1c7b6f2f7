package discovery

import (
	"fmt"

	"dev.hon.one/netcrawl/common"
	"dev.hon.one/netcrawl/util"
)

// Persist - Write the neighbor data and the topology as two snapshots named after the seed.
// Returns the written paths.
func (result *Result) Persist(writer util.SnapshotWriter) ([]string, error) {
	dataPath, err := writer.WriteSnapshot(result.Seed, result.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to persist neighbor data: %w", err)
	}
	topologyPath, err := writer.WriteSnapshot(result.Seed+"-topology", result.Topology)
	if err != nil {
		return []string{dataPath}, fmt.Errorf("failed to persist topology: %w", err)
	}
	return []string{dataPath, topologyPath}, nil
}

// LoadData - Read neighbor data from a snapshot written by Persist.
func LoadData(path string) (map[DeviceKey][]common.NeighborRecord, error) {
	var data map[DeviceKey][]common.NeighborRecord
	if err := util.ParseJSONFile(&data, path); err != nil {
		return nil, err
	}
	return data, nil
}

package discovery

import (
	"context"
	"errors"
	"sync"

	"dev.hon.one/netcrawl/common"
)

var errUnreachable = errors.New("unreachable")

type fakeDevice struct {
	hostname     string
	neighbors    []common.NeighborRecord
	connectErr   error
	neighborsErr error
	panics       bool
	// Called inside Neighbors, before returning
	hook func()
}

// fakeNetwork - Connector serving canned devices by IP address.
type fakeNetwork struct {
	mutex    sync.Mutex
	devices  map[string]*fakeDevice
	connects map[string]int
	closed   int
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		devices:  make(map[string]*fakeDevice),
		connects: make(map[string]int),
	}
}

func (network *fakeNetwork) add(ip string, device *fakeDevice) *fakeNetwork {
	network.devices[ip] = device
	return network
}

func (network *fakeNetwork) Connect(ctx context.Context, ip string) (Session, error) {
	network.mutex.Lock()
	network.connects[ip]++
	device, found := network.devices[ip]
	network.mutex.Unlock()
	if !found {
		return nil, errUnreachable
	}
	if device.connectErr != nil {
		return nil, device.connectErr
	}
	return &fakeSession{network: network, device: device}, nil
}

func (network *fakeNetwork) connectCount(ip string) int {
	network.mutex.Lock()
	defer network.mutex.Unlock()
	return network.connects[ip]
}

type fakeSession struct {
	network *fakeNetwork
	device  *fakeDevice
}

func (session *fakeSession) Hostname() string {
	return session.device.hostname
}

func (session *fakeSession) Neighbors(ctx context.Context) ([]common.NeighborRecord, error) {
	if session.device.hook != nil {
		session.device.hook()
	}
	if session.device.panics {
		panic("session exploded")
	}
	if session.device.neighborsErr != nil {
		return nil, session.device.neighborsErr
	}
	return session.device.neighbors, nil
}

func (session *fakeSession) Close() error {
	session.network.mutex.Lock()
	defer session.network.mutex.Unlock()
	session.network.closed++
	return nil
}

func router(hostname string, ip string, local string, remote string) common.NeighborRecord {
	return common.NeighborRecord{
		Hostname:        hostname,
		IPAddress:       ip,
		LocalInterface:  local,
		RemoteInterface: remote,
		Capabilities:    []string{"Router", "Switch", "IGMP"},
		Platform:        "cisco ISR4331",
		Vendor:          "Cisco",
	}
}

func host(hostname string, ip string, local string) common.NeighborRecord {
	return common.NeighborRecord{
		Hostname:        hostname,
		IPAddress:       ip,
		LocalInterface:  local,
		RemoteInterface: "eth0",
		Capabilities:    []string{"Host"},
		Platform:        "Linux",
	}
}

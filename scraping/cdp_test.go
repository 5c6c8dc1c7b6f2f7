package scraping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdpDetailOutput = `-------------------------
Device ID: SW1.example.com
Entry address(es):
  IP address: 10.0.0.2
Platform: cisco WS-C2960-24TT-L,  Capabilities: Switch IGMP
Interface: GigabitEthernet0/1,  Port ID (outgoing port): GigabitEthernet0/24
Holdtime : 133 sec

Version :
Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE4, RELEASE SOFTWARE (fc1)
Technical Support: http://www.cisco.com/techsupport
Copyright (c) 1986-2013 by Cisco Systems, Inc.

advertisement version: 2
Native VLAN: 1
Duplex: full
Management address(es):
  IP address: 192.168.0.2

-------------------------
Device ID: SEP001122334455
Entry address(es):
  IP address: 10.0.0.50
Platform: Cisco IP Phone 7841,  Capabilities: Host Phone Two-port Mac Relay
Interface: GigabitEthernet0/2,  Port ID (outgoing port): Port 1
Holdtime : 150 sec

Version :
sip78xx.10-3-1-20

-------------------------
Device ID: N5K-A(SSI1234ABCD)
Entry address(es):
  IPv4 Address: 10.0.0.3
Platform: N5K-C5548UP,  Capabilities: Router Switch IGMP Filtering
Interface: GigabitEthernet0/3,  Port ID (outgoing port): Ethernet1/1
Holdtime : 170 sec

Version :
Cisco Nexus Operating System (NX-OS) Software, Version 7.3(8)N1(1)


Total cdp entries displayed : 3`

func cdpLines(text string) []string {
	return strings.Split(text, "\n")
}

func TestParseCDPNeighbors(t *testing.T) {
	neighbors := ParseCDPNeighbors(cdpLines(cdpDetailOutput), true)
	require.Len(t, neighbors, 3)

	assert.Equal(t, "SW1", neighbors[0].Hostname)
	assert.Equal(t, "10.0.0.2", neighbors[0].IPAddress)
	assert.Equal(t, "cisco WS-C2960-24TT-L", neighbors[0].Platform)
	assert.Equal(t, "Cisco", neighbors[0].Vendor)
	assert.Equal(t, []string{"Switch", "IGMP"}, neighbors[0].Capabilities)
	assert.Equal(t, "GigabitEthernet0/1", neighbors[0].LocalInterface)
	assert.Equal(t, "GigabitEthernet0/24", neighbors[0].RemoteInterface)
	assert.Equal(t, "15.0(2)SE4", neighbors[0].SoftwareVersion)

	assert.Equal(t, "SEP001122334455", neighbors[1].Hostname)
	assert.Equal(t, []string{"Host", "Phone", "Two-port-Mac-Relay"}, neighbors[1].Capabilities)
	assert.Equal(t, "Port", neighbors[1].RemoteInterface)

	assert.Equal(t, "N5K-A", neighbors[2].Hostname)
	assert.Equal(t, "10.0.0.3", neighbors[2].IPAddress)
	assert.Equal(t, "Cisco", neighbors[2].Vendor)
	assert.Equal(t, "7.3(8)N1(1)", neighbors[2].SoftwareVersion)
	assert.Contains(t, neighbors[2].Capabilities, "Router")
}

func TestParseCDPNeighborsKeepsDomain(t *testing.T) {
	neighbors := ParseCDPNeighbors(cdpLines(cdpDetailOutput), false)
	require.NotEmpty(t, neighbors)
	assert.Equal(t, "SW1.example.com", neighbors[0].Hostname)
}

func TestParseCDPNeighborsEmpty(t *testing.T) {
	neighbors := ParseCDPNeighbors(cdpLines(""), true)
	assert.NotNil(t, neighbors)
	assert.Empty(t, neighbors)

	neighbors = ParseCDPNeighbors(cdpLines("% CDP is not enabled"), true)
	assert.Empty(t, neighbors)
}

func TestParseCDPNeighborsSkipsEntryWithoutDeviceID(t *testing.T) {
	output := `-------------------------
Entry address(es):
  IP address: 10.0.0.9
Platform: cisco ISR4331,  Capabilities: Router
-------------------------
Device ID: R2
Entry address(es):
  IP address: 10.0.0.10
Platform: cisco ISR4331,  Capabilities: Router Switch
Interface: GigabitEthernet0/0/0,  Port ID (outgoing port): GigabitEthernet0/0/1
`
	neighbors := ParseCDPNeighbors(cdpLines(output), true)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "R2", neighbors[0].Hostname)
	assert.Equal(t, "10.0.0.10", neighbors[0].IPAddress)
}

func TestParseCDPNeighborsMissingAddress(t *testing.T) {
	output := `Device ID: AP1
Platform: AIR-AP2802I-E-K9,  Capabilities: Trans-Bridge Source-Route-Bridge
Interface: GigabitEthernet0/5,  Port ID (outgoing port): GigabitEthernet0
`
	neighbors := ParseCDPNeighbors(cdpLines(output), true)
	require.Len(t, neighbors, 1)
	assert.Empty(t, neighbors[0].IPAddress)
	assert.Equal(t, "Cisco", neighbors[0].Vendor)
	assert.Equal(t, []string{"Trans-Bridge", "Source-Route-Bridge"}, neighbors[0].Capabilities)
}

func TestStripDomain(t *testing.T) {
	assert.Equal(t, "SW1", StripDomain("SW1.example.com"))
	assert.Equal(t, "SW1", StripDomain("SW1"))
	assert.Equal(t, "10.0.0.1", StripDomain("10.0.0.1"))
	assert.Equal(t, "", StripDomain(""))
}

package scraping

import (
	"net"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/common"
)

var cdpDeviceIDRegex = regexp.MustCompile(`^Device ID: *(\S+)`)
var cdpIPAddressRegex = regexp.MustCompile(`^ *IP(?:v4)? [Aa]ddress: *(\S+)`)
var cdpPlatformRegex = regexp.MustCompile(`^Platform: *([^,]+?) *, *Capabilities: *(.*)$`)
var cdpInterfaceRegex = regexp.MustCompile(`^Interface: *([^,]+?) *, *Port ID \(outgoing port\): *(\S+)`)
var cdpVersionBeginRegex = regexp.MustCompile(`^Version *:`)
var cdpSoftwareVersionRegex = regexp.MustCompile(`Version ([^ ,]+)`)

// Capabilities which contain spaces in CDP output.
var cdpMultiWordCapabilities = []string{"Two-port Mac Relay"}

var cdpVendorPrefixes = []struct {
	prefix string
	vendor string
}{
	{"cisco", "Cisco"},
	{"N5K", "Cisco"},
	{"N7K", "Cisco"},
	{"N9K", "Cisco"},
	{"AIR-", "Cisco"},
	{"Juniper", "Juniper"},
	{"Aruba", "Aruba"},
	{"HP", "HP"},
	{"Polycom", "Polycom"},
	{"VMware", "VMware"},
	{"Linux", "Linux"},
}

// ParseCDPNeighbors - Parse the output of "show cdp neighbors detail".
// Entries without a device ID are skipped.
func ParseCDPNeighbors(lines []string, stripDomain bool) []common.NeighborRecord {
	neighbors := make([]common.NeighborRecord, 0)
	for _, block := range splitCDPEntries(lines) {
		neighbor, ok := parseCDPEntry(block)
		if !ok {
			log.WithField("lines", len(block)).Warn("Skipping CDP entry without device ID")
			continue
		}
		if stripDomain {
			neighbor.Hostname = StripDomain(neighbor.Hostname)
		}
		neighbors = append(neighbors, neighbor)
	}
	return neighbors
}

// splitCDPEntries - Split the output into one block per entry, on the separator lines.
func splitCDPEntries(lines []string) [][]string {
	blocks := make([][]string, 0)
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "-----") {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = make([]string, 0)
			continue
		}
		if current != nil {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	// Output without separators is treated as one block per device ID
	if len(blocks) == 0 {
		for _, line := range lines {
			if cdpDeviceIDRegex.MatchString(line) {
				blocks = append(blocks, make([]string, 0))
			}
			if len(blocks) > 0 {
				blocks[len(blocks)-1] = append(blocks[len(blocks)-1], line)
			}
		}
	}
	return blocks
}

func parseCDPEntry(lines []string) (common.NeighborRecord, bool) {
	neighbor := common.NeighborRecord{
		Capabilities: []string{},
	}
	foundDeviceID := false
	inVersion := false
	for _, line := range lines {
		if inVersion {
			if strings.TrimSpace(line) == "" {
				inVersion = false
				continue
			}
			if neighbor.SoftwareVersion == "" {
				if result := cdpSoftwareVersionRegex.FindStringSubmatch(line); result != nil {
					neighbor.SoftwareVersion = result[1]
				}
			}
			continue
		}

		if result := cdpDeviceIDRegex.FindStringSubmatch(line); result != nil {
			neighbor.Hostname = trimSerialNumber(result[1])
			foundDeviceID = true
		} else if result := cdpIPAddressRegex.FindStringSubmatch(line); result != nil {
			// Entry addresses come before management addresses
			if neighbor.IPAddress == "" {
				neighbor.IPAddress = result[1]
			}
		} else if result := cdpPlatformRegex.FindStringSubmatch(line); result != nil {
			neighbor.Platform = result[1]
			neighbor.Vendor = vendorFromPlatform(result[1])
			neighbor.Capabilities = parseCDPCapabilities(result[2])
		} else if result := cdpInterfaceRegex.FindStringSubmatch(line); result != nil {
			neighbor.LocalInterface = result[1]
			neighbor.RemoteInterface = result[2]
		} else if cdpVersionBeginRegex.MatchString(line) {
			inVersion = true
		}
	}
	return neighbor, foundDeviceID && neighbor.Hostname != ""
}

func parseCDPCapabilities(text string) []string {
	for _, capability := range cdpMultiWordCapabilities {
		text = strings.ReplaceAll(text, capability, strings.ReplaceAll(capability, " ", "-"))
	}
	capabilities := strings.Fields(text)
	if capabilities == nil {
		return []string{}
	}
	return capabilities
}

// trimSerialNumber - Remove the serial number NX-OS appends to its device ID, e.g. "N5K(SSI1234)".
func trimSerialNumber(deviceID string) string {
	if index := strings.Index(deviceID, "("); index > 0 {
		return deviceID[:index]
	}
	return deviceID
}

// StripDomain - Keep only the first label of a hostname. IP addresses are kept as is.
func StripDomain(hostname string) string {
	if net.ParseIP(hostname) != nil {
		return hostname
	}
	if index := strings.Index(hostname, "."); index > 0 {
		return hostname[:index]
	}
	return hostname
}

func vendorFromPlatform(platform string) string {
	for _, entry := range cdpVendorPrefixes {
		if strings.HasPrefix(strings.ToLower(platform), strings.ToLower(entry.prefix)) {
			return entry.vendor
		}
	}
	return ""
}

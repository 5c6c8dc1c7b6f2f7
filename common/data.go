package common

import (
	"errors"
	"net"
	"time"
)

// Neighbor record field names, as used in filters and JSON.
const (
	NeighborFieldHostname        = "hostname"
	NeighborFieldIPAddress       = "ipAddress"
	NeighborFieldLocalInterface  = "localInterface"
	NeighborFieldRemoteInterface = "remoteInterface"
	NeighborFieldCapabilities    = "capabilities"
	NeighborFieldVendor          = "vendor"
	NeighborFieldPlatform        = "platform"
	NeighborFieldSoftware        = "softwareVersion"
)

// NeighborRecord - A single neighbor as reported by a device (e.g. one CDP entry).
// Optional fields are empty when the device did not report them.
type NeighborRecord struct {
	Hostname        string   `json:"hostname"`
	IPAddress       string   `json:"ipAddress"`
	LocalInterface  string   `json:"localInterface"`
	RemoteInterface string   `json:"remoteInterface"`
	Capabilities    []string `json:"capabilities"`
	Vendor          string   `json:"vendor,omitempty"`
	Platform        string   `json:"platform,omitempty"`
	SoftwareVersion string   `json:"softwareVersion,omitempty"`
}

// IsNeighborField - Check if the name is a known NeighborRecord field.
func IsNeighborField(name string) bool {
	switch name {
	case NeighborFieldHostname, NeighborFieldIPAddress, NeighborFieldLocalInterface,
		NeighborFieldRemoteInterface, NeighborFieldCapabilities, NeighborFieldVendor,
		NeighborFieldPlatform, NeighborFieldSoftware:
		return true
	}
	return false
}

// Field - Get the value(s) of a field by name.
// Returns false if the field is unknown or was not reported.
func (record NeighborRecord) Field(name string) ([]string, bool) {
	var value string
	switch name {
	case NeighborFieldHostname:
		value = record.Hostname
	case NeighborFieldIPAddress:
		value = record.IPAddress
	case NeighborFieldLocalInterface:
		value = record.LocalInterface
	case NeighborFieldRemoteInterface:
		value = record.RemoteInterface
	case NeighborFieldVendor:
		value = record.Vendor
	case NeighborFieldPlatform:
		value = record.Platform
	case NeighborFieldSoftware:
		value = record.SoftwareVersion
	case NeighborFieldCapabilities:
		if len(record.Capabilities) == 0 {
			return nil, false
		}
		return record.Capabilities, true
	default:
		return nil, false
	}
	if value == "" {
		return nil, false
	}
	return []string{value}, true
}

// IsMultiValued - Check if the field holds a set of values rather than a single string.
func IsMultiValued(name string) bool {
	return name == NeighborFieldCapabilities
}

var errMissingIPAddress = errors.New("missing IP address")
var errMalformedIPAddress = errors.New("malformed IP address")

// Validate - Check that the record can be crawled.
func (record NeighborRecord) Validate() error {
	if record.IPAddress == "" {
		return errMissingIPAddress
	}
	if net.ParseIP(record.IPAddress) == nil {
		return errMalformedIPAddress
	}
	return nil
}

// VisitEntry - Outcome of a single device visit.
type VisitEntry struct {
	RunID         string
	Time          time.Time
	Device        string
	IPAddress     string
	Duration      time.Duration
	Success       bool
	NeighborCount int
}

// RoundEntry - Outcome of a single crawl round.
type RoundEntry struct {
	RunID        string
	Time         time.Time
	Depth        int
	Visits       int
	Discovered   int
	FrontierSize int
	Duration     time.Duration
	Anomalies    int
	Cancelled    bool
}

package discovery

// DeviceKey - Pseudo-unique device identity used for all crawl deduplication.
type DeviceKey string

// Hostnames devices ship with, which say nothing about which device it is.
var defaultHostnames = map[string]bool{
	"Router": true,
	"Switch": true,
}

// ResolveKey - Resolve the key of a device from its IP address and (possibly empty) hostname.
// Returns the hostname if it is set and not a factory default, otherwise the IP address
// in parentheses, prefixed by the default hostname if any (e.g. "Switch(10.0.0.1)").
func ResolveKey(ip string, hostname string) DeviceKey {
	if hostname == "" {
		return DeviceKey("(" + ip + ")")
	}
	if !defaultHostnames[hostname] {
		return DeviceKey(hostname)
	}
	return DeviceKey(hostname + "(" + ip + ")")
}

func (key DeviceKey) String() string {
	return string(key)
}

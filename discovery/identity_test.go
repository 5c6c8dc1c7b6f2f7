package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKey(t *testing.T) {
	for _, x := range []struct {
		ip, hostname string
		want         DeviceKey
	}{
		{"10.0.0.1", "Switch", "Switch(10.0.0.1)"},
		{"10.0.0.1", "Router", "Router(10.0.0.1)"},
		{"10.0.0.1", "SW-CORE-1", "SW-CORE-1"},
		{"10.0.0.1", "", "(10.0.0.1)"},
		{"2001:db8::1", "", "(2001:db8::1)"},
		{"10.0.0.1", "switch", "switch"},
	} {
		t.Run(x.ip+"/"+x.hostname, func(t *testing.T) {
			assert.Equal(t, x.want, ResolveKey(x.ip, x.hostname))
			assert.Equal(t, ResolveKey(x.ip, x.hostname), ResolveKey(x.ip, x.hostname))
		})
	}
}

func TestResolveKeyDisambiguatesDefaults(t *testing.T) {
	assert.NotEqual(t, ResolveKey("10.0.0.1", "Switch"), ResolveKey("10.0.0.2", "Switch"))
	assert.Equal(t, ResolveKey("10.0.0.1", "CORE"), ResolveKey("10.0.0.2", "CORE"))
}

func TestTargetKey(t *testing.T) {
	assert.Equal(t, DeviceKey("(10.0.0.9)"), Target{IP: "10.0.0.9"}.Key())
	assert.Equal(t, DeviceKey("R9"), Target{IP: "10.0.0.9", Hostname: "R9"}.Key())
}

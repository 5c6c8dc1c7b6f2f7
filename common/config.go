package common

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"dev.hon.one/netcrawl/util"
)

// Config - The config.
type Config struct {
	MaxDepth              int          `json:"max_depth" yaml:"max_depth"`
	Workers               int          `json:"workers" yaml:"workers"`
	OutputDirectory       string       `json:"output_dir" yaml:"output_dir"`
	HTTPEndpoint          string       `json:"http_endpoint" yaml:"http_endpoint"`
	InfluxDBURL           string       `json:"influxdb_url" yaml:"influxdb_url"`
	InfluxDBToken         string       `json:"influxdb_token" yaml:"influxdb_token"`
	InfluxDBOrg           string       `json:"influxdb_org" yaml:"influxdb_org"`
	InfluxDBBucket        string       `json:"influxdb_bucket" yaml:"influxdb_bucket"`
	CredentialsPath       string       `json:"credentials_path" yaml:"credentials_path"`
	CredentialID          string       `json:"credential_id" yaml:"credential_id"`
	SSHPort               uint         `json:"ssh_port" yaml:"ssh_port"`
	ConnectTimeoutSeconds float64      `json:"connect_timeout" yaml:"connect_timeout"`
	CommandTimeoutSeconds float64      `json:"command_timeout" yaml:"command_timeout"`
	StripDomain           bool         `json:"strip_domain" yaml:"strip_domain"`
	NeighborFilter        FilterConfig `json:"neighbor_filter" yaml:"neighbor_filter"`
}

// FilterConfig - Neighbor filter as written in the config file.
// Field names are the JSON names of NeighborRecord fields.
type FilterConfig struct {
	Required   map[string]StringList `json:"required" yaml:"required"`
	Excluded   map[string]StringList `json:"excluded" yaml:"excluded"`
	ExactMatch bool                  `json:"exact_match" yaml:"exact_match"`
}

// StringList - List of strings which may also be written as a single string.
type StringList []string

// UnmarshalJSON - Accept a string or a list of strings.
func (list *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*list = StringList{single}
		return nil
	}
	var multiple []string
	if err := json.Unmarshal(data, &multiple); err != nil {
		return err
	}
	*list = multiple
	return nil
}

// UnmarshalYAML - Accept a scalar or a sequence of scalars.
func (list *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*list = StringList{value.Value}
		return nil
	}
	var multiple []string
	if err := value.Decode(&multiple); err != nil {
		return err
	}
	*list = multiple
	return nil
}

// DefaultConfig - Config with all defaults set.
func DefaultConfig() Config {
	return Config{
		MaxDepth:              16,
		Workers:               4,
		OutputDirectory:       "discovery",
		InfluxDBBucket:        "netcrawl",
		CredentialsPath:       "credentials.json",
		CredentialID:          "default",
		SSHPort:               22,
		ConnectTimeoutSeconds: 10,
		CommandTimeoutSeconds: 30,
		StripDomain:           true,
		NeighborFilter: FilterConfig{
			Required: map[string]StringList{NeighborFieldCapabilities: {"Router", "Switch"}},
			Excluded: map[string]StringList{NeighborFieldCapabilities: {"Host", "Phone"}},
		},
	}
}

// ConnectTimeout - Connect timeout as a duration.
func (config Config) ConnectTimeout() time.Duration {
	return time.Duration(config.ConnectTimeoutSeconds * float64(time.Second))
}

// CommandTimeout - Command timeout as a duration.
func (config Config) CommandTimeout() time.Duration {
	return time.Duration(config.CommandTimeoutSeconds * float64(time.Second))
}

// LoadConfig - Load configuration file into GlobalConfig. Defaults are kept if the path is empty.
func LoadConfig(path string) bool {
	if path == "" {
		// Allow no config
		return true
	}

	log.WithFields(log.Fields{
		"config_path": path,
	}).Info("Loading config")

	// Decoding merges into maps, so the default filter is only applied if none was given
	config := DefaultConfig()
	config.NeighborFilter = FilterConfig{}
	if err := util.ParseConfigFile(&config, path); err != nil {
		log.WithError(err).Error("Failed to load config")
		return false
	}
	if config.NeighborFilter.Required == nil && config.NeighborFilter.Excluded == nil {
		config.NeighborFilter = DefaultConfig().NeighborFilter
	}
	if !ValidateConfig(config) {
		return false
	}

	GlobalConfig = config
	return true
}

// ValidateConfig - Check config values, logging the first problem found.
func ValidateConfig(config Config) bool {
	if config.MaxDepth < 0 {
		log.Error("Negative max depth not allowed")
		return false
	}
	if config.Workers <= 0 {
		log.Error("Non-positive worker count not allowed")
		return false
	}
	if config.ConnectTimeoutSeconds <= 0 || config.CommandTimeoutSeconds <= 0 {
		log.Error("Non-positive timeouts not allowed")
		return false
	}
	if config.InfluxDBURL != "" && config.InfluxDBOrg == "" {
		log.Error("InfluxDB org missing")
		return false
	}
	for field := range config.NeighborFilter.Required {
		if !IsNeighborField(field) {
			log.WithField("field", field).Error("Unknown required neighbor filter field")
			return false
		}
	}
	for field := range config.NeighborFilter.Excluded {
		if !IsNeighborField(field) {
			log.WithField("field", field).Error("Unknown excluded neighbor filter field")
			return false
		}
	}
	return true
}

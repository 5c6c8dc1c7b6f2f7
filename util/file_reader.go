package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ParseJSONFile reads a file and parses it as JSON, using the provided object.
func ParseJSONFile(destination interface{}, path string) error {
	data, err := readFile(destination, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, destination); err != nil {
		return fmt.Errorf("failed to parse JSON file %v: %w", path, err)
	}
	return nil
}

// ParseYAMLFile reads a file and parses it as YAML, using the provided object.
func ParseYAMLFile(destination interface{}, path string) error {
	data, err := readFile(destination, path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, destination); err != nil {
		return fmt.Errorf("failed to parse YAML file %v: %w", path, err)
	}
	return nil
}

// ParseConfigFile parses a JSON or YAML file, chosen by file extension (JSON if unknown).
func ParseConfigFile(destination interface{}, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLFile(destination, path)
	default:
		return ParseJSONFile(destination, path)
	}
}

func readFile(destination interface{}, path string) ([]byte, error) {
	log.WithFields(log.Fields{
		"datatype": fmt.Sprintf("%T", destination),
		"path":     path,
	}).Trace("Parsing file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %v: %w", path, err)
	}
	return data, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dev.hon.one/netcrawl/discovery"
)

// Topology output formats.
const (
	formatJSON   = "json"
	formatNextUI = "nextui"
	formatDOT    = "dot"
)

func newTopologyCmd() *cobra.Command {
	var dataPath string
	var format string
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Rebuild the topology from a saved discovery data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := discovery.LoadData(dataPath)
			if err != nil {
				return err
			}
			return writeTopology(cmd.OutOrStdout(), discovery.BuildTopology(data), format)
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "Discovery data file.")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json, nextui or dot.")
	cmd.MarkFlagRequired("data")
	return cmd
}

func writeTopology(out io.Writer, topology discovery.Topology, format string) error {
	var output []byte
	var err error
	switch format {
	case formatJSON:
		output, err = json.MarshalIndent(topology, "", "  ")
	case formatNextUI:
		output, err = json.MarshalIndent(topology.NextUI(), "", "  ")
	case formatDOT:
		output, err = topology.DOT()
	default:
		return fmt.Errorf("unknown format: %v", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	_, err = fmt.Fprintln(out, string(output))
	return err
}

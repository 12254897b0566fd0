package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mrichange/pkg/colormap"
	"mrichange/pkg/config"
)

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "mrichange.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
			return nil
		},
	}
}

// lutEntry is one row of the dumped tables
type lutEntry struct {
	Index  int   `yaml:"index"`
	Weight *int  `yaml:"weight,omitempty"`
	RGB    []int `yaml:"rgb,flow"`
}

type lutDump struct {
	Greyscale         []lutEntry `yaml:"greyscale"`
	Redscale          []lutEntry `yaml:"redscale"`
	ReverseGreenscale []lutEntry `yaml:"reverseGreenscale"`
}

func overlayEntries(t *colormap.OverlayTable) []lutEntry {
	out := make([]lutEntry, len(t))
	for i, e := range t {
		w := int(e.Weight)
		out[i] = lutEntry{Index: i, Weight: &w, RGB: []int{int(e.R), int(e.G), int(e.B)}}
	}
	return out
}

func writeColormaps(w io.Writer) error {
	tables := colormap.Default()

	dump := lutDump{
		Greyscale:         make([]lutEntry, len(tables.Grey)),
		Redscale:          overlayEntries(&tables.Increase),
		ReverseGreenscale: overlayEntries(&tables.Decrease),
	}
	for i, e := range tables.Grey {
		dump.Greyscale[i] = lutEntry{Index: i, RGB: []int{int(e.R), int(e.G), int(e.B)}}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("error encoding colormaps: %w", err)
	}
	return enc.Close()
}

func newColormapsCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "colormaps",
		Short: "Print the greyscale, increase and decrease lookup tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return writeColormaps(cmd.OutOrStdout())
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := writeColormaps(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the tables to a file instead of stdout")
	return cmd
}

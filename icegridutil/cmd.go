/*
Copyright © 2021 the icegrid authors.
This file is part of icegrid.

icegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package icegridutil holds the command-line interface for the icegrid
// preprocessor.
package icegridutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nsidc/icegrid"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to icegrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "dataset",
			usage: `
              dataset specifies the product family of the input granules.
              Valid options are "nsidc0051", "g02202", and "noaa-appx".`,
			shorthand:  "d",
			defaultVal: "nsidc0051",
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
		{
			name: "files",
			usage: `
              files lists the granule files to preprocess. Entries may be
              local paths (glob patterns allowed), http(s) URLs, or blob
              storage locations (file://, gs://, or s3://).`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the directory where canonical files are written,
              one per input granule.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
		{
			name: "cellarea",
			usage: `
              cellarea maps grid identifiers to NetCDF ancillary files holding
              the published per-cell area field (for example
              {"psn25": "NSIDC0771_CellArea_PS_N25km_v1.0.nc"}). Grids without
              an entry use nominal projected-space areas.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
		{
			name: "cellarea_var",
			usage: `
              cellarea_var is the variable name holding the area field in the
              cellarea ancillary files.`,
			defaultVal: "cell_area",
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers is the number of granules to preprocess concurrently.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{preprocCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ICEGRID")

	for _, option := range options {
		for _, set := range option.flagsets {
			if set.Lookup(option.name) != nil {
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, v, option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, v, option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, v, option.usage)
				} else {
					set.IntP(option.name, option.shorthand, v, option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(preprocCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("icegrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "icegrid",
	Short: "A preprocessor for passive-microwave sea ice grids.",
	Long: `icegrid converts per-sensor sea-ice-concentration granules into a
canonical, analysis-ready schema so that many files can be concatenated
into one multi-temporal dataset.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'ICEGRID_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of icegrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("icegrid v%s\n", icegrid.Version)
	},
	DisableAutoGenTag: true,
}

var preprocCmd = &cobra.Command{
	Use:   "preproc",
	Short: "Preprocess sea ice granules",
	Long: `preproc converts the granule files given by the files configuration
variable to the canonical schema and writes one NetCDF file per granule
to output_dir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cellArea, err := GetStringMapString("cellarea", Cfg)
		if err != nil {
			return fmt.Errorf("icegrid: cellarea configuration: %v", err)
		}
		files := expandStringSlice(Cfg.GetStringSlice("files"))
		return Preproc(
			context.Background(),
			Cfg.GetString("dataset"),
			files,
			os.ExpandEnv(Cfg.GetString("output_dir")),
			cellArea,
			Cfg.GetString("cellarea_var"),
			Cfg.GetInt("workers"),
		)
	},
	DisableAutoGenTag: true,
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

/*
Copyright © 2020 the gemini3d-go authors.
This file is part of gemini3d-go.

gemini3d-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gemini3d-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gemini3d-go.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package gemini3dutil contains the command-line interface and
// configuration file readers for gemini3d.
package gemini3dutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/sparse"
	"github.com/gemini3d/gemini3d-go"
	"github.com/gemini3d/gemini3d-go/msis"
	"github.com/gemini3d/gemini3d-go/plot"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to gemini3d.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the location of a configuration file
              holding values for any of these options.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level sets the logging verbosity: one of panic, fatal,
              error, warn, info or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "time",
			usage: `
              time specifies the simulation time to use, e.g.
              2013-02-20T05:00:00Z. By default the start time in the
              simulation configuration is used.`,
			shorthand:  "t",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{frameCmd.Flags(), msisCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "vars",
			usage: `
              vars specifies the frame variables to read. By default
              ne, Ti, Te, v1, v2, v3, J1, J2, J3 and Phi are read.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{frameCmd.Flags(), convertCmd.Flags()},
		},
		{
			name: "file_format",
			usage: `
              file_format restricts frame files to one storage format:
              h5, nc, dat or mat. By default the format is taken from the
              simulation configuration or the file suffix.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{frameCmd.Flags(), convertCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "out",
			usage: `
              out specifies the output file.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "var",
			usage: `
              var specifies the frame variable to plot.`,
			defaultVal: "ne",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "i2",
			usage: `
              i2 is the x2 index of the profile to plot.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), msisCmd.Flags()},
		},
		{
			name: "i3",
			usage: `
              i3 is the x3 index of the profile to plot.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags(), msisCmd.Flags()},
		},
		{
			name: "msis_exe",
			usage: `
              msis_exe is the path of the msis_setup executable. It may
              contain environment variables.`,
			defaultVal: "msis_setup",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
		{
			name: "msis_src",
			usage: `
              msis_src is the CMake source directory of msis_setup. If it
              is set and msis_exe does not exist, msis_setup is built.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
		{
			name: "msis_build",
			usage: `
              msis_build is the CMake build directory of msis_setup. The
              default is the directory holding msis_exe.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
		{
			name: "msis_transport",
			usage: `
              msis_transport selects how data is exchanged with msis_setup:
              "pipe" for text over standard input and output, or "file"
              for binary temporary files.`,
			defaultVal: "pipe",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
		{
			name: "msis_version",
			usage: `
              msis_version selects the MSIS version. Zero uses the value
              in the simulation configuration.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
		{
			name: "plot",
			usage: `
              plot, if set, is a PNG file to draw the neutral density
              profile at (i2, i3) to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{msisCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEMINI3D")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
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
	Root.AddCommand(simsizeCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(frameCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(msisCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gemini3d: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("gemini3d: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gemini3d",
	Short: "Read and prepare GEMINI ionospheric model data.",
	Long: `gemini3d reads the grids and output frames of the GEMINI ionospheric
model, whether they are stored as raw binary, HDF5, netCDF or MATLAB files,
and prepares the MSIS neutral atmosphere for a simulation.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEMINI3D_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of gemini3d.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("gemini3d v%s\n", gemini3d.Version)
	},
	DisableAutoGenTag: true,
}

var simsizeCmd = &cobra.Command{
	Use:   "simsize <path>",
	Short: "Print the grid size of a simulation",
	Long: `simsize prints the number of cells along x1, x2 and x3 of the
simulation in the given directory, or of the given simsize file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lx, err := gemini3d.ReadSimSize(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%d %d %d\n", lx[0], lx[1], lx[2])
		return nil
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid <path>",
	Short: "Summarize a simulation grid",
	Long: `grid reads the grid of the simulation in the given directory,
or the given grid file, and prints its size, geometry and extent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := gemini3d.ReadGrid(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("file: %s\n", g.Filename)
		cmd.Printf("lx: %d %d %d\n", g.Lx[0], g.Lx[1], g.Lx[2])
		cmd.Printf("geometry: %s\n", g.Geometry())
		for _, v := range []struct {
			name  string
			a     *sparse.DenseArray
			scale float64
		}{{"alt [km]", g.Alt, 1e-3}, {"glat", g.Glat, 1}, {"glon", g.Glon, 1}} {
			cmd.Printf("%s: %g to %g\n", v.name, floats.Min(v.a.Elements)*v.scale, floats.Max(v.a.Elements)*v.scale)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var frameCmd = &cobra.Command{
	Use:   "frame <simdir>",
	Short: "Summarize an output frame",
	Long: `frame reads the output frame of the simulation in the given directory at
the time given by --time, or the given frame file, and prints the range of each
variable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readFrame(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("file: %s\n", f.Filename)
		cmd.Printf("time: %s\n", f.Time.Format(time.RFC3339Nano))
		for _, m := range []map[string]*sparse.DenseArray{f.Vars, f.Surface, f.Species} {
			for _, name := range sortedNames(m) {
				a := m[name]
				cmd.Printf("%s %v: %g to %g\n", name, a.Shape, floats.Min(a.Elements), floats.Max(a.Elements))
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <frame> <out.nc>",
	Short: "Convert an output frame to netCDF",
	Long: `convert reads an output frame in any storage format and writes it
as a netCDF file that gemini3d can read back.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readFrame(args[0])
		if err != nil {
			return err
		}
		w, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := f.WriteNetCDF(w); err != nil {
			w.Close()
			return err
		}
		logrus.WithFields(logrus.Fields{"in": f.Filename, "out": args[1]}).Info("converted frame")
		return w.Close()
	},
	DisableAutoGenTag: true,
}

var msisCmd = &cobra.Command{
	Use:   "msis <simdir>",
	Short: "Compute the neutral atmosphere for a simulation",
	Long: `msis runs the MSIS model on the grid of the simulation in the given
directory, using the activity indices in its configuration, and writes the
densities of O, N2, O2, N, NO and H and the neutral temperature to the
netCDF file given by --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := Cfg.GetString("out")
		if out == "" {
			return fmt.Errorf("gemini3d: --out must be set: %w", gemini3d.ErrConfiguration)
		}
		g, err := gemini3d.ReadGrid(args[0])
		if err != nil {
			return err
		}
		cfg, err := ReadConfig(args[0])
		if err != nil {
			return err
		}
		t, err := simTime(cfg)
		if err != nil {
			return err
		}
		a, err := msis.ActivityFromConfig(cfg)
		if err != nil {
			return err
		}
		r, err := msisRunner()
		if err != nil {
			return err
		}
		version := Cfg.GetInt("msis_version")
		if version == 0 {
			version = cfg.MSISVersion()
		}
		stack, err := r.Setup(context.Background(), g, t, a, version)
		if err != nil {
			return err
		}

		w, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := msis.WriteNetCDF(w, stack, g.Lx); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		if p := Cfg.GetString("plot"); p != "" {
			return writePNG(p, func(w *os.File) error {
				return plot.MSISProfile(w, g, stack, Cfg.GetInt("i2"), Cfg.GetInt("i3"))
			})
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot <simdir>",
	Short: "Plot an altitude profile",
	Long: `plot draws the altitude profile of the frame variable given by --var
at the time given by --time and writes it to the PNG file given by --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := Cfg.GetString("out")
		if out == "" {
			return fmt.Errorf("gemini3d: --out must be set: %w", gemini3d.ErrConfiguration)
		}
		name := Cfg.GetString("var")
		g, err := gemini3d.ReadGrid(args[0])
		if err != nil {
			return err
		}
		f, err := readFrameVars(args[0], gemini3d.NewVarSet(name))
		if err != nil {
			return err
		}
		return writePNG(out, func(w *os.File) error {
			return plot.Profile(w, g, f, name, Cfg.GetInt("i2"), Cfg.GetInt("i3"))
		})
	},
	DisableAutoGenTag: true,
}

// readFrame reads the frame at path with the variables given by the
// vars option.
func readFrame(path string) (*gemini3d.Frame, error) {
	vars, err := cast.ToStringSliceE(Cfg.Get("vars"))
	if err != nil {
		return nil, fmt.Errorf("gemini3d: reading 'vars': %v", err)
	}
	return readFrameVars(path, gemini3d.NewVarSet(vars...))
}

// readFrameVars reads a frame file, or the frame of the simulation
// directory path at the time given by the time option.
func readFrameVars(path string, vars gemini3d.VarSet) (*gemini3d.Frame, error) {
	cfg, err := simConfig(path)
	if err != nil {
		return nil, err
	}
	if ff := Cfg.GetString("file_format"); ff != "" {
		cfg["file_format"] = ff
	}
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return gemini3d.ReadData(path, vars, cfg)
	}
	t, err := simTime(cfg)
	if err != nil {
		return nil, err
	}
	return gemini3d.ReadFrame(path, t, vars, cfg)
}

// simConfig returns the configuration of the simulation holding path, or
// an empty configuration if there is none.
func simConfig(path string) (gemini3d.Config, error) {
	dir := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		dir = filepath.Dir(path)
	}
	cfg, err := ReadConfig(dir)
	if errors.Is(err, gemini3d.ErrNotFound) {
		return gemini3d.Config{}, nil
	}
	return cfg, err
}

// simTime returns the time given by the time option, or else the start
// time of the simulation.
func simTime(cfg gemini3d.Config) (time.Time, error) {
	if s := Cfg.GetString("time"); s != "" {
		t, err := cast.ToTimeE(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("gemini3d: invalid time %q: %v: %w", s, err, gemini3d.ErrConfiguration)
		}
		return t.UTC(), nil
	}
	return cfg.Start()
}

func msisRunner() (*msis.Runner, error) {
	exe := os.ExpandEnv(Cfg.GetString("msis_exe"))
	r := &msis.Runner{Exe: exe, Log: logrus.StandardLogger()}
	switch tr := Cfg.GetString("msis_transport"); tr {
	case "pipe", "":
	case "file":
		r.Transport = &msis.File{}
	default:
		return nil, fmt.Errorf("gemini3d: unknown msis_transport %q: %w", tr, gemini3d.ErrConfiguration)
	}
	if src := os.ExpandEnv(Cfg.GetString("msis_src")); src != "" {
		build := os.ExpandEnv(Cfg.GetString("msis_build"))
		if build == "" {
			build = filepath.Dir(exe)
		}
		r.Builder = &msis.Builder{Src: src, BuildDir: build, Target: exe, Log: r.Log}
	}
	return r, nil
}

func writePNG(path string, draw func(*os.File) error) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func sortedNames(m map[string]*sparse.DenseArray) []string {
	names := make(gemini3d.VarSet, len(m))
	for n := range m {
		names[n] = true
	}
	return names.Names()
}

/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/notargets/gofdtd/FD3D"
	"github.com/notargets/gofdtd/InputParameters"
	"github.com/notargets/gofdtd/logger"
	"github.com/notargets/gofdtd/model_problems/Acoustic3D"
)

type Model3D struct {
	ICFile string
	N      int // Points per side of the default scenario grid
}

// ThreeDCmd represents the 3D command
var ThreeDCmd = &cobra.Command{
	Use:   "3D",
	Short: "Three dimensional visco-acoustic solver",
	Long: `
Runs the 3D visco-acoustic finite difference solver, either on the built in
iso scenario (a Ricker source at the centre of a uniform cube) or on a YAML
input file.

gofdtd 3D -n 101 -x 19 -y 8
gofdtd 3D -I iso.yaml --formulation tensor`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			cfg Acoustic3D.Config
		)
		m3d := &Model3D{}
		m3d.ICFile, _ = cmd.Flags().GetString("inputConditionsFile")
		m3d.N, _ = cmd.Flags().GetInt("n")
		ip := processInput(m3d)
		if cfg, err = NewConfig(ip, m3d.N); err == nil {
			err = ApplyFlags(cmd.Flags(), &cfg)
		}
		if err != nil {
			logger.Logger().Errorw("invalid input", "error", err)
			os.Exit(1)
		}
		if err = Run3D(cfg); err != nil {
			logger.Logger().Errorw("solve failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(ThreeDCmd)
	ThreeDCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Shape, Spacing, SpaceOrder\n\t- TimeAxis, Materials, Source")
	ThreeDCmd.Flags().IntP("n", "n", 101, "points per side of the built in scenario grid")
	ThreeDCmd.Flags().IntP("blockX", "x", 19, "x block size of the tiled update")
	ThreeDCmd.Flags().IntP("blockY", "y", 8, "y block size of the tiled update")
	ThreeDCmd.Flags().StringP("formulation", "f", "iso", "update formulation: iso (fused stencil) or tensor")
	ThreeDCmd.Flags().String("precision", "float32", "field precision: float32 or float64")
	ThreeDCmd.Flags().IntP("procLimit", "p", 0, "maximum number of worker goroutines, 0 uses all CPUs")
	ThreeDCmd.Flags().IntP("logFrequency", "l", 50, "steps between progress reports")
	ThreeDCmd.Flags().Float64("tmax", 0, "override the end of the time axis")
}

func processInput(m3d *Model3D) (ip *InputParameters.InputParameters3D) {
	var (
		err  error
		data []byte
	)
	if len(m3d.ICFile) == 0 {
		return
	}
	if data, err = os.ReadFile(m3d.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParameters3D{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	ip.Print()
	return
}

// NewConfig overlays the input file on the built in scenario, a nil ip leaves the scenario unchanged
func NewConfig(ip *InputParameters.InputParameters3D, n int) (cfg Acoustic3D.Config, err error) {
	cfg = Acoustic3D.ScenarioConfig(n)
	cfg.LogFrequency = 50
	if ip == nil {
		return
	}
	if ip.Title != "" {
		cfg.Title = ip.Title
	}
	if ip.Shape != [3]int{} {
		cfg.Shape = ip.Shape
	}
	if ip.Spacing != [3]float64{} {
		cfg.Spacing = ip.Spacing
	}
	cfg.Origin = ip.Origin
	if ip.SpaceOrder != 0 {
		cfg.SpaceOrder = ip.SpaceOrder
	}
	if ip.Precision != "" {
		if cfg.Precision, err = Acoustic3D.NewPrecision(ip.Precision); err != nil {
			return
		}
	}
	if ip.TimeAxis.Step != 0 {
		if cfg.TimeAxis, err = FD3D.NewTimeAxis(ip.TimeAxis.Start, ip.TimeAxis.Stop, ip.TimeAxis.Step); err != nil {
			return
		}
	}
	mp := ip.Materials
	for _, m := range []struct {
		dst *Acoustic3D.MaterialInit
		val *float64
	}{{&cfg.B, mp.B}, {&cfg.Vel, mp.Vel}, {&cfg.WOverQ, mp.WOverQ}} {
		if m.val != nil {
			*m.dst = Acoustic3D.MaterialInit{Uniform: *m.val}
		}
	}
	for n, b := range mp.BTensor {
		if b != nil {
			cfg.BTensor[n] = &Acoustic3D.MaterialInit{Uniform: *b}
		}
	}
	sp := ip.Source
	if len(sp.Coordinates) != 0 {
		cfg.Source.Coordinates = sp.Coordinates
	} else {
		// The default source sits at the centre of whatever grid the file describes
		cfg.Source.Coordinates = [][3]float64{gridCenter(cfg)}
	}
	if sp.F0 != 0 {
		cfg.Source.F0 = sp.F0
	}
	cfg.Source.Amplitude, cfg.Source.T0 = sp.Amplitude, sp.T0
	cfg.Source.DropMisplaced = sp.DropMisplaced
	if ip.Formulation != "" {
		if cfg.Formulation, err = Acoustic3D.NewFormulation(ip.Formulation); err != nil {
			return
		}
	}
	if ip.BlockSize != [2]int{} {
		cfg.BlockSize = ip.BlockSize
	}
	cfg.ParallelDegree = ip.ParallelDegree
	if ip.LogFrequency != 0 {
		cfg.LogFrequency = ip.LogFrequency
	}
	return
}

func gridCenter(cfg Acoustic3D.Config) (center [3]float64) {
	for n := 0; n < 3; n++ {
		center[n] = cfg.Origin[n] + cfg.Spacing[n]*float64((cfg.Shape[n]-1)/2)
	}
	return
}

// ApplyFlags overrides the config with flags given explicitly on the command line
func ApplyFlags(flags *pflag.FlagSet, cfg *Acoustic3D.Config) (err error) {
	if flags.Changed("blockX") {
		cfg.BlockSize[0], _ = flags.GetInt("blockX")
	}
	if flags.Changed("blockY") {
		cfg.BlockSize[1], _ = flags.GetInt("blockY")
	}
	if flags.Changed("formulation") {
		label, _ := flags.GetString("formulation")
		if cfg.Formulation, err = Acoustic3D.NewFormulation(label); err != nil {
			return
		}
	}
	if flags.Changed("precision") {
		label, _ := flags.GetString("precision")
		if cfg.Precision, err = Acoustic3D.NewPrecision(label); err != nil {
			return
		}
	}
	if flags.Changed("procLimit") {
		cfg.ParallelDegree, _ = flags.GetInt("procLimit")
	}
	if flags.Changed("logFrequency") {
		cfg.LogFrequency, _ = flags.GetInt("logFrequency")
	}
	if flags.Changed("tmax") {
		tmax, _ := flags.GetFloat64("tmax")
		if cfg.TimeAxis, err = FD3D.NewTimeAxis(cfg.TimeAxis.Start, tmax, cfg.TimeAxis.Step); err != nil {
			return
		}
	}
	return
}

func Run3D(cfg Acoustic3D.Config) (err error) {
	switch viper.GetString("profile") {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "":
	default:
		return fmt.Errorf("unknown profile kind %q, must be cpu or mem", viper.GetString("profile"))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var res Acoustic3D.Result
	if res, err = Acoustic3D.RunConfig(ctx, cfg); err != nil {
		return
	}
	res.Print()
	return
}

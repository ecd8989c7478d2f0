package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

type TimeAxisParameters struct {
	Start float64 `json:"Start"`
	Stop  float64 `json:"Stop"`
	Step  float64 `json:"Step"`
}

// Material values are pointers so an explicit zero, e.g. a lossless WOverQ, is kept
type MaterialParameters struct {
	B       *float64    `json:"B"`
	Vel     *float64    `json:"Vel"`
	WOverQ  *float64    `json:"WOverQ"`
	BTensor [3]*float64 `json:"BTensor"` // Diagonal buoyancy components, null entries fall back to B
}

type SourceParameters struct {
	F0            float64      `json:"F0"`
	Amplitude     float64      `json:"Amplitude"`
	T0            float64      `json:"T0"`
	Coordinates   [][3]float64 `json:"Coordinates"`
	DropMisplaced bool         `json:"DropMisplaced"`
}

// Parameters obtained from the YAML input file
type InputParameters3D struct {
	Title          string             `json:"Title"`
	Shape          [3]int             `json:"Shape"`
	Spacing        [3]float64         `json:"Spacing"`
	Origin         [3]float64         `json:"Origin"`
	SpaceOrder     int                `json:"SpaceOrder"`
	Precision      string             `json:"Precision"`
	TimeAxis       TimeAxisParameters `json:"TimeAxis"`
	Materials      MaterialParameters `json:"Materials"`
	Source         SourceParameters   `json:"Source"`
	Formulation    string             `json:"Formulation"`
	BlockSize      [2]int             `json:"BlockSize"`
	ParallelDegree int                `json:"ParallelDegree"`
	LogFrequency   int                `json:"LogFrequency"`
}

func (ip *InputParameters3D) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters3D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%v\t\t= Shape\n", ip.Shape)
	fmt.Printf("%v\t\t= Spacing\n", ip.Spacing)
	fmt.Printf("%v\t\t= Origin\n", ip.Origin)
	fmt.Printf("[%d]\t\t\t\t= Space Order\n", ip.SpaceOrder)
	fmt.Printf("[%s]\t\t\t= Precision\n", ip.Precision)
	fmt.Printf("%8.5f %8.5f %8.5f\t= Time Axis (start, stop, step)\n",
		ip.TimeAxis.Start, ip.TimeAxis.Stop, ip.TimeAxis.Step)
	fmt.Printf("%s %s %s\t= Materials (b, vel, w/Q)\n",
		optional(ip.Materials.B), optional(ip.Materials.Vel), optional(ip.Materials.WOverQ))
	fmt.Printf("%8.5f\t\t= Source F0\n", ip.Source.F0)
	for n, c := range ip.Source.Coordinates {
		fmt.Printf("Source[%d] = %v\n", n, c)
	}
	fmt.Printf("[%s]\t\t\t= Formulation\n", ip.Formulation)
	fmt.Printf("%v\t\t\t= Block Size\n", ip.BlockSize)
}

func optional(v *float64) string {
	if v == nil {
		return "   unset"
	}
	return fmt.Sprintf("%8.5f", *v)
}

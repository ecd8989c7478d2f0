package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/notargets/gofdtd/FD3D"
)

var (
	csvFile    string
	spaceOrder = 8
	shiftLabel = "plus"
	derivOrder = 1
	numPTS     = "16,24,32,48,64"
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study: title, numPTS, spaceOrder, errRMS, errMAX")
	soPtr := flag.Int("so", spaceOrder, "space order of the stencil to study")
	shiftPtr := flag.String("shift", shiftLabel, "stencil shift: minus, centered or plus")
	orderPtr := flag.Int("order", derivOrder, "derivative order, 1 or 2")
	nPtr := flag.String("n", numPTS, "comma separated grid sizes")
	flag.Parse()
	if len(*csvFilePtr) != 0 {
		fmt.Printf("Input file: %v\n", *csvFilePtr)
		studies := readCSV(*csvFilePtr)
		titles := make([]string, 0, len(studies))
		for title := range studies {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		for _, title := range titles {
			studies[title].Print()
		}
		return
	}
	shift, err := parseShift(*shiftPtr)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	var ns []int
	for _, txt := range strings.Split(*nPtr, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(txt))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		ns = append(ns, n)
	}
	cs, err := StencilStudy(*soPtr, shift, *orderPtr, ns)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	cs.Print()
}

type ConvergenceStudy struct {
	title          string
	spaceOrder     int
	numPTS         []int
	errRMS, errMAX []float64
}

func NewConvergenceStudy(title string, spaceOrder int) *ConvergenceStudy {
	return &ConvergenceStudy{
		title:      title,
		spaceOrder: spaceOrder,
	}
}

func (cs *ConvergenceStudy) Add(numPTS int, errRMS, errMAX float64) {
	cs.numPTS = append(cs.numPTS, numPTS)
	cs.errRMS = append(cs.errRMS, errRMS)
	cs.errMAX = append(cs.errMAX, errMAX)
}

// Orders fits err = C*h^p in log space over all entries, h = 1/(numPTS-1)
func (cs *ConvergenceStudy) Orders() (rmsOrder, maxOrder float64) {
	var (
		logH           = make([]float64, len(cs.numPTS))
		logRMS, logMAX = make([]float64, len(cs.numPTS)), make([]float64, len(cs.numPTS))
	)
	for i, n := range cs.numPTS {
		logH[i] = math.Log(1 / float64(n-1))
		logRMS[i] = math.Log(cs.errRMS[i])
		logMAX[i] = math.Log(cs.errMAX[i])
	}
	_, rmsOrder = stat.LinearRegression(logH, logRMS, nil, false)
	_, maxOrder = stat.LinearRegression(logH, logMAX, nil, false)
	return
}

func (cs *ConvergenceStudy) Print() {
	fmt.Printf("Title = %s, Space Order = %d\n", cs.title, cs.spaceOrder)
	for i := range cs.numPTS {
		fmt.Printf("%d, %12.6e, %12.6e\n", cs.numPTS[i], cs.errRMS[i], cs.errMAX[i])
	}
	if len(cs.numPTS) > 1 {
		rms, mx := cs.Orders()
		fmt.Printf("Observed order: RMS %5.2f, MAX %5.2f\n", rms, mx)
	}
}

func parseShift(label string) (shift FD3D.Shift, err error) {
	switch strings.ToLower(label) {
	case "minus", "-":
		shift = FD3D.ShiftMinus
	case "centered", "0":
		shift = FD3D.Centered
	case "plus", "+":
		shift = FD3D.ShiftPlus
	default:
		err = fmt.Errorf("unknown shift %q, must be minus, centered or plus", label)
	}
	return
}

/*
StencilStudy differentiates sin(2 pi x) on [0,1] along x for each grid
size and records the error over the points whose stencil lies inside
the grid.
*/
func StencilStudy(spaceOrder int, shift FD3D.Shift, order int, ns []int) (cs *ConvergenceStudy, err error) {
	var (
		st FD3D.Stencil
		k  = 2 * math.Pi
	)
	if st, err = FD3D.Coefficients(spaceOrder, shift, order); err != nil {
		return
	}
	cs = NewConvergenceStudy(fmt.Sprintf("d%d/dx%d shift %s", order, order, shift), spaceOrder)
	for _, n := range ns {
		var (
			h  = 1 / float64(n-1)
			g  *FD3D.Grid
			f  *FD3D.Field[float64]
			op *FD3D.StencilOperator[float64]
			df *FD3D.Field[float64]
		)
		if g, err = FD3D.NewGrid([3]int{n, 1, 1}, [3]float64{h, 1, 1}, [3]float64{}); err != nil {
			return
		}
		if f, err = FD3D.NewField[float64]("f", g, spaceOrder, [3]FD3D.Staggering{}); err != nil {
			return
		}
		f.SetFunc(func(i, j, kk int) float64 { return math.Sin(k * float64(i) * h) })
		if op, err = FD3D.NewStencilOperator[float64](g, spaceOrder); err != nil {
			return
		}
		if df, err = op.Derivative(f, FD3D.X, shift, order); err != nil {
			return
		}
		var (
			lo, hi      = -st.Offsets[0], n - 1 - st.Offsets[len(st.Offsets)-1]
			sum, maxErr float64
			count       int
		)
		if hi < lo {
			err = fmt.Errorf("%w: %d points are too few for space order %d",
				FD3D.ErrInvalidDimension, n, spaceOrder)
			return
		}
		for i := lo; i <= hi; i++ {
			var (
				x     = (float64(i) + shift.Position()) * h
				exact = k * math.Cos(k*x)
			)
			if order == 2 {
				exact = -k * k * math.Sin(k*x)
			}
			v, _ := df.At(i, 0, 0)
			e := math.Abs(v - exact)
			sum += e * e
			maxErr = math.Max(maxErr, e)
			count++
		}
		cs.Add(n, math.Sqrt(sum/float64(count)), maxErr)
	}
	return
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records [][]string
		err     error
		f       *os.File
		ok      bool
		cs      *ConvergenceStudy
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, npts, so, errRMS, errMAX, err := parseRecord(rec)
		if err != nil {
			fmt.Printf("skipping line %d: %v\n", i+1, err)
			continue
		}
		combTitle := title + strconv.Itoa(so)
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, so)
			studies[combTitle] = cs
		}
		cs.Add(npts, errRMS, errMAX)
	}
	return
}

// parseRecord reads title, numPTS, spaceOrder, errRMS, errMAX from one CSV row
func parseRecord(rec []string) (title string, npts, so int, errRMS, errMAX float64, err error) {
	if len(rec) < 5 {
		err = fmt.Errorf("want 5 fields, got %d", len(rec))
		return
	}
	title = strings.TrimSpace(rec[0])
	if npts, err = strconv.Atoi(strings.TrimSpace(rec[1])); err != nil {
		return
	}
	if so, err = strconv.Atoi(strings.TrimSpace(rec[2])); err != nil {
		return
	}
	if errRMS, err = strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err != nil {
		return
	}
	if errMAX, err = strconv.ParseFloat(strings.TrimSpace(rec[4]), 64); err != nil {
		return
	}
	if npts < 2 || !(errRMS > 0) || !(errMAX > 0) {
		err = fmt.Errorf("numPTS %d must be at least 2 and errors %g, %g positive", npts, errRMS, errMAX)
	}
	return
}

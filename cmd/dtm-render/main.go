// Command dtm-render renders one band of a saved terrain raster as an
// HTML chart: one colored point per non-empty cell, positioned in UTM.
// Above -max-points occupied cells only every stride-th cell is drawn.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/imclab/atlaas/internal/dtm"
	"github.com/imclab/atlaas/internal/raster"
	"github.com/imclab/atlaas/internal/version"
)

var (
	inPath    = flag.String("in", "atlaas.tif", "Input window raster")
	outPath   = flag.String("out", "dtm.html", "Output HTML file")
	bandName  = flag.String("band", "Z_MEAN", "Band to render")
	maxPoints = flag.Int("max-points", 20000, "Downsample above this many cells")
	showVer   = flag.Bool("version", false, "Print version and exit")
)

// viridis, matching the usual terrain/occupancy colormap.
var rampColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println("dtm-render", version.String())
		return
	}

	m, err := raster.Load(*inPath)
	if err != nil {
		log.Fatalf("load raster: %v", err)
	}
	band := bandIndex(m, *bandName)
	if band < 0 {
		log.Fatalf("raster has no band %q (bands: %v)", *bandName, m.Names())
	}
	npBand := bandIndex(m, dtm.BandNames[dtm.BandNPoints])
	if npBand < 0 {
		log.Fatalf("raster has no %s band (bands: %v)", dtm.BandNames[dtm.BandNPoints], m.Names())
	}

	npts := m.Band(npBand)
	vals := m.Band(band)

	occupied := 0
	for i := range npts {
		if npts[i] > 0 {
			occupied++
		}
	}
	stride := 1
	if occupied > *maxPoints {
		stride = int(math.Ceil(float64(occupied) / float64(*maxPoints)))
	}

	data := make([]opts.ScatterData, 0, occupied/stride+1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	kept := 0
	for idx := range npts {
		if npts[idx] == 0 {
			continue
		}
		kept++
		if kept%stride != 0 {
			continue
		}
		px := idx % m.Width()
		py := idx / m.Width()
		ux, uy := m.PointPix2UTM(float64(px)+0.5, float64(py)+0.5)
		v := float64(vals[idx])
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		minX = math.Min(minX, ux)
		maxX = math.Max(maxX, ux)
		minY = math.Min(minY, uy)
		maxY = math.Max(maxY, uy)
		data = append(data, opts.ScatterData{Value: []interface{}{ux, uy, v}})
	}
	if len(data) == 0 {
		log.Fatalf("raster %s has no occupied cells", *inPath)
	}
	if maxV == minV {
		maxV = minV + 1
	}
	padX := (maxX-minX)*0.05 + 1
	padY := (maxY-minY)*0.05 + 1

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Digital Terrain Model",
			Theme:     "dark",
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Digital Terrain Model",
			Subtitle: fmt.Sprintf("band=%s cells=%d stride=%d", *bandName, len(data), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minX - padX, Max: maxX + padX, Name: "UTM X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minY - padY, Max: maxY + padY, Name: "UTM Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minV),
			Max:        float32(maxV),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: rampColors},
		}),
	)
	scatter.AddSeries(*bandName, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := scatter.Render(f); err != nil {
		log.Fatalf("render chart: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}

func bandIndex(m *raster.Map, name string) int {
	for i, n := range m.Names() {
		if n == name {
			return i
		}
	}
	return -1
}

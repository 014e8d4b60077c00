// Command dtm fuses point-cloud files into a terrain model directory.
//
// Each input file holds one cloud, one "x y z" point per line (comma or
// whitespace separated, '#' comments ignored). An optional poses file
// carries one "yaw,pitch,roll,x,y,z" line per cloud; without it the
// clouds are taken to be in the world frame already.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/imclab/atlaas/internal/config"
	"github.com/imclab/atlaas/internal/dtm"
	"github.com/imclab/atlaas/internal/tiledb"
	"github.com/imclab/atlaas/internal/version"
)

var (
	configPath = flag.String("config", "", "JSON tuning config (optional)")
	outPath    = flag.String("out", "atlaas.tif", "Output window raster path")
	posesPath  = flag.String("poses", "", "File with one yaw,pitch,roll,x,y,z line per cloud")
	label      = flag.String("label", "", "Session label recorded in the tile catalog")
	utmX       = flag.Float64("utm-x", 0, "UTM X of the window origin")
	utmY       = flag.Float64("utm-y", 0, "UTM Y of the window origin")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println("dtm", version.String())
		return
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: dtm [flags] cloud.xyz [cloud.xyz ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	tiles := dtm.NewTileStore(cfg.GetTileDir(), cfg.GetTilePattern())
	if dbPath := cfg.GetCatalogDB(); dbPath != "" {
		catalog, err := tiledb.Open(dbPath)
		if err != nil {
			log.Fatalf("tile catalog: %v", err)
		}
		defer catalog.Close()
		session, err := catalog.BeginSession(*label)
		if err != nil {
			log.Fatalf("tile catalog session: %v", err)
		}
		tiles.SetCatalog(catalog, session)
		log.Printf("tile catalog session %s", session)
	}

	model, err := dtm.New(dtm.Params{
		SizeX:          cfg.GetSizeX(),
		SizeY:          cfg.GetSizeY(),
		Scale:          cfg.GetScale(),
		UTMX:           *utmX,
		UTMY:           *utmY,
		UTMZone:        cfg.GetUTMZone(),
		UTMNorth:       cfg.GetUTMNorth(),
		VarianceFactor: cfg.GetVarianceFactor(),
		DynamicMerge:   cfg.GetDynamicMerge(),
		Tiles:          tiles,
	})
	if err != nil {
		log.Fatalf("model: %v", err)
	}
	model.SetEventSink(func(name string, fields map[string]any) {
		log.Printf("event %s: %v", name, fields)
	})

	poses, err := loadPoses(*posesPath, flag.NArg())
	if err != nil {
		log.Fatalf("poses: %v", err)
	}

	for i, path := range flag.Args() {
		cloud, err := loadCloud(path)
		if err != nil {
			log.Fatalf("cloud %s: %v", path, err)
		}
		if err := model.Merge(cloud, poses[i]); err != nil {
			log.Fatalf("merge %s: %v", path, err)
		}
		log.Printf("merged %s: %d points", path, len(cloud))
	}

	if err := model.Save(*outPath); err != nil {
		log.Fatalf("save raster: %v", err)
	}
	if err := model.SaveCurrents(); err != nil {
		log.Fatalf("save maplets: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}

// loadPoses reads one pose line per cloud; an empty path yields identity
// poses for all n clouds.
func loadPoses(path string, n int) ([]dtm.Matrix, error) {
	poses := make([]dtm.Matrix, n)
	identity := dtm.Pose6D{}.Matrix()
	for i := range poses {
		poses[i] = identity
	}
	if path == "" {
		return poses, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	i := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i >= n {
			return nil, fmt.Errorf("more poses than clouds (%d clouds)", n)
		}
		fields := splitFields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %q: want 6 values", line)
		}
		var v [6]float64
		for j, s := range fields {
			v[j], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %q: %w", line, err)
			}
		}
		poses[i] = dtm.Pose6D{Yaw: v[0], Pitch: v[1], Roll: v[2], X: v[3], Y: v[4], Z: v[5]}.Matrix()
		i++
	}
	return poses, scanner.Err()
}

func loadCloud(path string) ([]dtm.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cloud []dtm.Point
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %q: want x y z", line)
		}
		var v [3]float64
		for j := 0; j < 3; j++ {
			v[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %q: %w", line, err)
			}
		}
		cloud = append(cloud, dtm.Point{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])})
	}
	return cloud, scanner.Err()
}

func splitFields(line string) []string {
	return strings.Fields(strings.ReplaceAll(line, ",", " "))
}

package glyphscan_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hupe1980/glyphscan"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/report"
	"github.com/hupe1980/glyphscan/source"
)

// Example_scan scans in-memory records and prints the groups it found.
func Example_scan() {
	scanner, err := glyphscan.New()
	if err != nil {
		log.Fatal(err)
	}

	src := source.NewSlice([]model.GlyphRecord{
		{ID: "g1", Source: "a.json", Vector: []float64{1, 0, 0}},
		{ID: "g3", Source: "a.json", Vector: []float64{0, 1, 0}},
		{ID: "g2", Source: "b.json", Vector: []float64{1, 0, 0}},
		{ID: "g4", Source: "b.json", Vector: []float64{0, 1, 1e-9}},
	})

	rep, err := scanner.Scan(context.Background(), src)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range rep.Clusters {
		fmt.Println("exact:", c.Members[0], c.Members[1])
	}
	for _, p := range rep.Pairs {
		fmt.Printf("near: %s %s %.3f\n", p.A, p.B, p.Similarity)
	}
	// Output:
	// exact: g1@a.json g2@b.json
	// near: g3@a.json g4@b.json 1.000
}

// Example_textReport decodes NDJSON and renders the console report.
func Example_textReport() {
	ndjson := `{"id":"x","vec":[0.5,0.5]}
{"id":"y","vec":[0.5,0.5]}
{"id":"z","vec":"oops"}
`
	scanner, _ := glyphscan.New(glyphscan.WithPrecision(12))
	dec := source.NewDecoder(strings.NewReader(ndjson), "glyphs.ndjson")
	defer dec.Close()

	rep, err := scanner.Scan(context.Background(), dec)
	if err != nil {
		log.Fatal(err)
	}

	_ = report.NewText(os.Stdout, report.TextOptions{}).Report(context.Background(), rep)
	// Output:
	// Scanned 2 glyphs across 1 files.
	// Skipped 1 records (invalid=1, dimension=0).
	//
	// === EXACT VECTOR CLUSTERS (precision ~12 sig figs) ===
	// - size=2 :: x@glyphs.ndjson, y@glyphs.ndjson
	//
	// === NEAR-CLONES (cos ≥ 0.9995) ===
	// none
}

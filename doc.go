// Package glyphscan finds exact and near-duplicate vectors in large glyph
// collections without comparing every pair.
//
// A glyph is an identifier, the label of the file it came from, and a
// fixed-dimension feature vector. A scan reports
//
//   - exact clones: glyphs whose vectors agree up to a configurable number of
//     significant decimal digits (SHA-256 over a canonical serialization), and
//   - near-clones: pairs whose cosine similarity reaches a threshold. Only
//     glyphs that share a random-projection sign bucket are compared.
//
// # Quick Start
//
//	scanner, err := glyphscan.New(glyphscan.WithThreshold(0.999))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := blobstore.NewLocalStore("")
//	src := source.NewMulti(store, []string{"a.json", "b.ndjson.gz"},
//	    source.WithController(scanner.Controller()))
//	defer src.Close()
//
//	rep, err := scanner.Scan(ctx, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = report.NewText(os.Stdout).Report(ctx, rep)
//
// # Runs
//
// Scan drives a Run, which can also be fed by hand:
//
//	run, _ := scanner.NewRun(ctx)
//	defer run.Close()
//	for _, rec := range records {
//	    if err := run.Ingest(ctx, rec); err != nil && !glyphscan.IsRecoverable(err) {
//	        return err
//	    }
//	}
//	rep, err := run.Finalize(ctx)
//
// A Run moves Idle -> Ingesting -> Finalizing -> Reported; out-of-order calls
// return ErrInvalidState. A Scanner is immutable and may run any number of
// scans, also concurrently.
//
// # Overlap policy
//
// A pair of glyphs in the same exact-clone group is reported only in the exact
// section unless WithIncludeExact(true) is set.
//
// # Determinism
//
// With equal configuration (in particular the projection seed) and equal
// input, two scans produce identical clusters, pairs and counters. Near-clone
// pairs are ordered by the acceptance order of their glyphs.
package glyphscan

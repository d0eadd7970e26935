// Package main provides a read-only inspection tool for the document store.
//
// Usage:
//
//	STORE_PATH=~/ClubTrophies/data go run ./cmd/dbinspect
//	go run ./cmd/dbinspect -store-path ./data -samples 5 -doc clubs/abc123
//	go run ./cmd/dbinspect -doc clubs/abc123/boats/b1 -field name
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/config"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

func main() {
	path := flag.String("store-path", os.Getenv("STORE_PATH"), "Directory of the document store (default: ~/ClubTrophies/data)")
	samples := flag.Int("samples", 3, "Sample paths to show per collection group")
	doc := flag.String("doc", "", "Print the document at this path instead of the summary")
	field := flag.String("field", "", "With -doc, print only this dotted field")
	flag.Parse()

	dbPath, err := config.ExpandStorePath(*path)
	if err != nil {
		log.Fatalf("Failed to resolve store path: %v", err)
	}

	s, err := store.Open(store.Options{Path: dbPath, ReadOnly: true})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if *doc != "" {
		if err := printDocument(ctx, s, *doc, *field); err != nil {
			log.Fatalf("Failed to read %s: %v", *doc, err)
		}
		return
	}

	stats, err := s.GroupStats(ctx, *samples)
	if err != nil {
		log.Fatalf("Failed to scan store: %v", err)
	}

	fmt.Printf("=== Document Store: %s ===\n\n", dbPath)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tDOCUMENTS")
	total := 0
	for _, st := range stats {
		fmt.Fprintf(w, "%s\t%d\n", st.Group, st.Count)
		total += st.Count
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	w.Flush()

	pending, err := s.Pending(ctx)
	if err != nil {
		log.Fatalf("Failed to read outbox: %v", err)
	}
	fmt.Printf("\nUnhandled changes in outbox: %d\n", len(pending))
	for _, c := range pending {
		fmt.Printf("  #%d %s %s\n", c.Seq, c.Kind, c.Path)
	}

	for _, st := range stats {
		if len(st.Samples) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", st.Group)
		for _, p := range st.Samples {
			fmt.Printf("  %s\n", p)
		}
	}
}

func printDocument(ctx context.Context, s *store.Store, path, field string) error {
	snap, err := s.GetSnapshot(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("# %s (group %s)\n", snap.Path, snap.Group())
	if field != "" {
		v, ok := snap.Field(field)
		if !ok {
			return fmt.Errorf("no field %q", field)
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, snap.Data(), "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/triad"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/ingestion"
)

// Built-in seed corpus: subject|predicate|object facts about Indian
// earth-observation and meteorology missions.
var facts = []string{
	"INSAT-3D|carries|Imager",
	"INSAT-3D|carries|Sounder",
	"INSAT-3D|carries|Data Relay Transponder",
	"INSAT-3D|launched by|ISRO",
	"INSAT-3D|operates from|geostationary orbit",
	"INSAT-3DR|carries|Imager",
	"INSAT-3DR|carries|Sounder",
	"INSAT-3DR|follows|INSAT-3D",
	"Imager|observes|cloud cover",
	"Imager|observes|sea surface temperature",
	"Imager|has channel|thermal infrared",
	"Imager|has channel|visible",
	"Sounder|measures|atmospheric temperature profile",
	"Sounder|measures|humidity profile",
	"Oceansat-2|carries|Scatterometer",
	"Oceansat-2|carries|Ocean Colour Monitor",
	"Oceansat-2|launched by|ISRO",
	"Scatterometer|measures|ocean surface winds",
	"Ocean Colour Monitor|observes|chlorophyll concentration",
	"SAC|develops|Imager",
	"SAC|develops|Sounder",
	"SAC|develops|Scatterometer",
	"SAC|located in|Ahmedabad",
	"SAC|part of|ISRO",
	"ISRO|headquartered in|Bengaluru",
	"ISRO|operates|INSAT-3D",
	"ISRO|operates|Oceansat-2",
	"MOSDAC|archives|INSAT-3D products",
	"MOSDAC|archives|Oceansat-2 products",
	"MOSDAC|hosted by|SAC",
	"Kalpana-1|carries|Very High Resolution Radiometer",
	"Kalpana-1|launched by|ISRO",
	"Megha-Tropiques|studies|tropical water cycle",
	"Megha-Tropiques|carries|MADRAS",
	"MADRAS|measures|precipitation",
	"SARAL|carries|AltiKa",
	"AltiKa|measures|sea surface height",
	"Cartosat-2|provides|high resolution imagery",
	"RISAT-1|carries|synthetic aperture radar",
	"Synthetic aperture radar|observes|surface through clouds",
}

var (
	seedFileName = flag.String("src", "", "file of seed facts, one subject|predicate|object per line")
	dbPath       = flag.String("db", "./triad_db", "path to the database directory")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// parseFact splits a subject|predicate|object line into a triple.
// Malformed lines return false.
func parseFact(line string) (core.Triple, bool) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 {
		return core.Triple{}, false
	}
	return core.Triple{
		Subject:   strings.TrimSpace(parts[0]),
		Predicate: strings.TrimSpace(parts[1]),
		Object:    strings.TrimSpace(parts[2]),
		Source:    "seed",
	}, true
}

// seedBatched reads facts from a source iterator and applies them in batches.
func seedBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[string], batchSize int) (*ingestion.Stats, error) {
	total := &ingestion.Stats{}
	batch := make([]core.Triple, 0, batchSize)

	apply := func() error {
		stats, err := pipeline.IngestTriples(ctx, batch)
		if err != nil {
			return err
		}
		total.Applied += stats.Applied
		total.NewEdges += stats.NewEdges
		total.Skipped += stats.Skipped
		batch = batch[:0]
		return nil
	}

	for line := range source {
		triple, ok := parseFact(line)
		if !ok {
			slog.Warn("skipping malformed seed line", "line", line)
			continue
		}
		batch = append(batch, triple)
		if len(batch) == batchSize {
			if err := apply(); err != nil {
				return total, err
			}
		}
	}

	// Apply any remaining facts
	if len(batch) > 0 {
		if err := apply(); err != nil {
			return total, err
		}
	}

	return total, nil
}

func main() {
	db, err := triad.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ingester, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(facts)
	}

	// Seed in batches of 5
	stats, err := seedBatched(ctx, ingester, source, 5)
	if err != nil {
		panic(err)
	}

	// Give the pool time to finish embedding provenance passages
	time.Sleep(500 * time.Millisecond)

	entities, relations, err := db.GraphStore().Counts(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Seeded %d facts (%d new edges, %d skipped); graph now holds %d entities and %d relations\n",
		stats.Applied, stats.NewEdges, stats.Skipped, entities, relations)
}

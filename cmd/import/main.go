/*
main.go - Plant data import CLI

PURPOSE:
  Loads CSV exports from a treatment site into the dosing database. This
  is the batch counterpart to the HTTP API: months of tank readings and a
  full catalog arrive as spreadsheet exports, not one request at a time.

COMMAND-LINE FLAGS:
  -db        SQLite database path (default: ./data/dosing.db)
  -tanks     tank catalog CSV
  -supplies  supply contracts CSV
  -cws       weekly cooling water parameters CSV
  -bws       weekly boiler steam parameters CSV
  -readings  tank readings CSV
  -debug     verbose logging

  File flags are all optional but at least one must be named. Files import
  in dependency order regardless of flag order; see importer.Run.

EXAMPLES:
  # First load: everything at once
  ./import -db=./data/dosing.db -tanks=tanks.csv -supplies=supplies.csv \
      -cws=cws.csv -readings=readings.csv

  # Weekly top-up against an existing database
  ./import -db=./data/dosing.db -readings=week12.csv

EXIT CODES:
  0 on success, 1 on import failure, 2 on usage errors.

SEE ALSO:
  - importer/importer.go: Ordering and idempotence rules
  - importer/loader.go: Expected CSV formats
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/clearwater/dosing-engine/importer"
	"github.com/clearwater/dosing-engine/logging"
	"github.com/clearwater/dosing-engine/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "./data/dosing.db", "SQLite database path")
	tanks := flag.String("tanks", "", "tank catalog CSV")
	supplies := flag.String("supplies", "", "supply contracts CSV")
	cws := flag.String("cws", "", "weekly cooling water parameters CSV")
	bws := flag.String("bws", "", "weekly boiler steam parameters CSV")
	readings := flag.String("readings", "", "tank readings CSV")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	files := importer.Files{
		Tanks:    *tanks,
		Supplies: *supplies,
		CWS:      *cws,
		BWS:      *bws,
		Readings: *readings,
	}
	if files == (importer.Files{}) {
		fmt.Fprintln(os.Stderr, "nothing to import: name at least one CSV file")
		flag.Usage()
		os.Exit(2)
	}

	if err := logging.Init(*debug); err != nil {
		logging.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()

	st, err := sqlite.New(*dbPath)
	if err != nil {
		logging.Fatalf("Failed to open database %s: %v", *dbPath, err)
	}
	defer st.Close()

	sum, err := importer.Run(context.Background(), st, files)
	if err != nil {
		logging.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d tanks, %d supplies, %d CWS records, %d BWS records, %d readings (%d already present)\n",
		sum.Tanks, sum.Supplies, sum.CWSRecords, sum.BWSRecords, sum.Readings, sum.SkippedReadings)
}

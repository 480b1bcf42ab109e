/*
loader.go - CSV parsing for plant data exports

PURPOSE:
  Parses the five CSV exports a treatment site produces (tank catalog,
  supply contracts, weekly CWS/BWS parameter sheets, tank readings) into
  domain records. This is the strict edge of the system: rows that do not
  parse are rejected with file and row context, so a bad export fails
  loudly here instead of degrading silently inside the engine.

FILE FORMATS:
  Comma-separated with a mandatory header row. Dates are YYYY-MM-DD,
  timestamps RFC 3339. Empty id cells get generated UUIDs.

  tanks:    id,name,site,system,method,shape,diameter_cm,height_cm,
            length_cm,width_cm,sensor_offset_cm,head,liters_per_cm
  supplies: id,tank_id,product,effective_from,target_ppm,price_per_kg,
            specific_gravity
  cws:      id,tank_id,week_start,circulation_m3h,temp_diff_c,cycles,
            cws_hardness_ppm,makeup_hardness_ppm
  bws:      id,tank_id,week_start,steam_tons
  readings: id,tank_id,timestamp,weight_kg,level_cm,refill_liters,
            refill_gravity

LEVEL READINGS:
  A reading row carries either weight_kg directly or only a raw level_cm.
  Level rows are converted on the way in: tank geometry gives the volume,
  the contract active on the reading's day gives the specific gravity, and
  weight is volume times gravity. The conversion context comes from the
  caller so a readings-only import resolves against an existing database.

SEE ALSO:
  - importer.go: Run, which drives these loaders against a store
  - ../factory: tank rows go through the same validation as the API
  - ../dosing/geometry.go: the level to volume conversion
*/
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/factory"
)

// =============================================================================
// EXPECTED HEADERS
// =============================================================================

var (
	tanksHeader    = []string{"id", "name", "site", "system", "method", "shape", "diameter_cm", "height_cm", "length_cm", "width_cm", "sensor_offset_cm", "head", "liters_per_cm"}
	suppliesHeader = []string{"id", "tank_id", "product", "effective_from", "target_ppm", "price_per_kg", "specific_gravity"}
	cwsHeader      = []string{"id", "tank_id", "week_start", "circulation_m3h", "temp_diff_c", "cycles", "cws_hardness_ppm", "makeup_hardness_ppm"}
	bwsHeader      = []string{"id", "tank_id", "week_start", "steam_tons"}
	readingsHeader = []string{"id", "tank_id", "timestamp", "weight_kg", "level_cm", "refill_liters", "refill_gravity"}
)

// =============================================================================
// LOADER
// =============================================================================

// Loader parses plant CSV exports into domain records.
type Loader struct {
	factory *factory.TankFactory
}

// NewLoader creates a new CSV loader.
func NewLoader() *Loader {
	return &Loader{factory: factory.NewTankFactory()}
}

// ReadingContext supplies what level-only reading rows need to become
// weights: the tank catalog for geometry and each tank's contract history
// for specific gravity.
type ReadingContext struct {
	Tanks    map[dosing.TankID]dosing.Tank
	Supplies map[dosing.TankID][]dosing.ChemicalSupply
}

// weightFromLevel derives stored content mass from a raw sensor level: the
// tank's volume at that level times the specific gravity of the contract
// active on the reading's day.
func (c ReadingContext) weightFromLevel(tankID dosing.TankID, at time.Time, levelCm float64) (float64, error) {
	tank, ok := c.Tanks[tankID]
	if !ok {
		return 0, fmt.Errorf("level readings need tank geometry, tank %s is not in the catalog", tankID)
	}
	supply, ok := dosing.ActiveSupply(dosing.DayOf(at), c.Supplies[tankID])
	if !ok || supply.SpecificGravity <= 0 {
		return 0, fmt.Errorf("no supply contract with a specific gravity covers %s for tank %s", dosing.DayOf(at), tankID)
	}
	return dosing.VolumeLiters(tank, levelCm) * supply.SpecificGravity, nil
}

// =============================================================================
// LOAD METHODS - one per file type
// =============================================================================

// LoadTanks reads tank definitions. Rows run through the same factory
// validation as the create-tank endpoint, so an import cannot smuggle in a
// definition the API would reject.
func (l *Loader) LoadTanks(filename string) ([]dosing.Tank, error) {
	records, err := readCSV(filename, "tanks", tanksHeader)
	if err != nil {
		return nil, err
	}

	var tanks []dosing.Tank
	for i, record := range records {
		tank, err := l.parseTank(record)
		if err != nil {
			return nil, fmt.Errorf("tanks CSV row %d: %w", i+2, err)
		}
		tanks = append(tanks, tank)
	}
	return tanks, nil
}

// LoadSupplies reads supply contract rows.
func (l *Loader) LoadSupplies(filename string) ([]dosing.ChemicalSupply, error) {
	records, err := readCSV(filename, "supplies", suppliesHeader)
	if err != nil {
		return nil, err
	}

	var supplies []dosing.ChemicalSupply
	for i, record := range records {
		supply, err := parseSupply(record)
		if err != nil {
			return nil, fmt.Errorf("supplies CSV row %d: %w", i+2, err)
		}
		supplies = append(supplies, supply)
	}
	return supplies, nil
}

// LoadCWSRecords reads weekly cooling water parameter rows.
func (l *Loader) LoadCWSRecords(filename string) ([]dosing.CWSParameterRecord, error) {
	records, err := readCSV(filename, "cws parameters", cwsHeader)
	if err != nil {
		return nil, err
	}

	var recs []dosing.CWSParameterRecord
	for i, record := range records {
		rec, err := parseCWSRecord(record)
		if err != nil {
			return nil, fmt.Errorf("cws parameters CSV row %d: %w", i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadBWSRecords reads weekly boiler steam parameter rows.
func (l *Loader) LoadBWSRecords(filename string) ([]dosing.BWSParameterRecord, error) {
	records, err := readCSV(filename, "bws parameters", bwsHeader)
	if err != nil {
		return nil, err
	}

	var recs []dosing.BWSParameterRecord
	for i, record := range records {
		rec, err := parseBWSRecord(record)
		if err != nil {
			return nil, fmt.Errorf("bws parameters CSV row %d: %w", i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadReadings reads tank reading rows, converting level-only rows to
// weights through the supplied context.
func (l *Loader) LoadReadings(filename string, rctx ReadingContext) ([]dosing.Reading, error) {
	records, err := readCSV(filename, "readings", readingsHeader)
	if err != nil {
		return nil, err
	}

	var readings []dosing.Reading
	for i, record := range records {
		r, err := parseReading(record, rctx)
		if err != nil {
			return nil, fmt.Errorf("readings CSV row %d: %w", i+2, err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// =============================================================================
// FILE READING
// =============================================================================

// readCSV opens a file, validates its header against the expected one and
// returns the trimmed data rows.
func readCSV(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s CSV: %w", kind, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have a header and at least one data row", kind)
	}
	if err := validateHeader(records[0], expectedHeader); err != nil {
		return nil, fmt.Errorf("%s CSV: %w", kind, err)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return rows, nil
}

// validateHeader compares column names case-insensitively.
func validateHeader(actual, expected []string) error {
	if len(actual) != len(expected) {
		return fmt.Errorf("expected %d header columns, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != expected[i] {
			return fmt.Errorf("header column %d: expected %q, got %q", i+1, expected[i], actual[i])
		}
	}
	return nil
}

// =============================================================================
// ROW PARSERS
// =============================================================================

func (l *Loader) parseTank(record []string) (dosing.Tank, error) {
	tj := factory.TankJSON{
		ID:     record[0],
		Name:   record[1],
		Site:   record[2],
		System: record[3],
		Method: record[4],
		Shape:  record[5],
		Head:   record[11],
	}

	var err error
	if tj.DiameterCm, err = parseOptionalFloat(record[6], "diameter_cm"); err != nil {
		return dosing.Tank{}, err
	}
	if tj.HeightCm, err = parseOptionalFloat(record[7], "height_cm"); err != nil {
		return dosing.Tank{}, err
	}
	if tj.LengthCm, err = parseOptionalFloat(record[8], "length_cm"); err != nil {
		return dosing.Tank{}, err
	}
	if tj.WidthCm, err = parseOptionalFloat(record[9], "width_cm"); err != nil {
		return dosing.Tank{}, err
	}
	if tj.SensorOffsetCm, err = parseOptionalFloat(record[10], "sensor_offset_cm"); err != nil {
		return dosing.Tank{}, err
	}
	if tj.LitersPerCm, err = parseOptionalFloat(record[12], "liters_per_cm"); err != nil {
		return dosing.Tank{}, err
	}

	return l.factory.FromJSON(tj)
}

func parseSupply(record []string) (dosing.ChemicalSupply, error) {
	if record[1] == "" {
		return dosing.ChemicalSupply{}, fmt.Errorf("invalid tank_id: %q", record[1])
	}

	effective, err := parseDayField(record[3], "effective_from")
	if err != nil {
		return dosing.ChemicalSupply{}, err
	}
	ppm, err := parseFloat(record[4], "target_ppm")
	if err != nil {
		return dosing.ChemicalSupply{}, err
	}
	price, err := decimal.NewFromString(record[5])
	if err != nil {
		return dosing.ChemicalSupply{}, fmt.Errorf("invalid price_per_kg: %q", record[5])
	}
	gravity, err := parseFloat(record[6], "specific_gravity")
	if err != nil {
		return dosing.ChemicalSupply{}, err
	}

	return dosing.ChemicalSupply{
		ID:              dosing.SupplyID(rowID(record[0])),
		TankID:          dosing.TankID(record[1]),
		Product:         record[2],
		EffectiveFrom:   effective,
		TargetPPM:       ppm,
		Price:           price,
		SpecificGravity: gravity,
	}, nil
}

func parseCWSRecord(record []string) (dosing.CWSParameterRecord, error) {
	if record[1] == "" {
		return dosing.CWSParameterRecord{}, fmt.Errorf("invalid tank_id: %q", record[1])
	}

	weekStart, err := parseDayField(record[2], "week_start")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}
	circulation, err := parseFloat(record[3], "circulation_m3h")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}
	tempDiff, err := parseFloat(record[4], "temp_diff_c")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}

	// Cycles and the hardness pair may be blank: a sheet reports either the
	// stored cycles value or the measured hardness ratio that overrides it.
	cycles, err := parseOptionalFloat(record[5], "cycles")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}
	cwsHardness, err := parseOptionalFloat(record[6], "cws_hardness_ppm")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}
	makeupHardness, err := parseOptionalFloat(record[7], "makeup_hardness_ppm")
	if err != nil {
		return dosing.CWSParameterRecord{}, err
	}

	return dosing.CWSParameterRecord{
		ID:                dosing.RecordID(rowID(record[0])),
		TankID:            dosing.TankID(record[1]),
		WeekStart:         weekStart,
		CirculationM3H:    circulation,
		TempDiffC:         tempDiff,
		Cycles:            cycles,
		CWSHardnessPPM:    cwsHardness,
		MakeupHardnessPPM: makeupHardness,
	}, nil
}

func parseBWSRecord(record []string) (dosing.BWSParameterRecord, error) {
	if record[1] == "" {
		return dosing.BWSParameterRecord{}, fmt.Errorf("invalid tank_id: %q", record[1])
	}

	weekStart, err := parseDayField(record[2], "week_start")
	if err != nil {
		return dosing.BWSParameterRecord{}, err
	}
	steamTons, err := parseFloat(record[3], "steam_tons")
	if err != nil {
		return dosing.BWSParameterRecord{}, err
	}

	return dosing.BWSParameterRecord{
		ID:        dosing.RecordID(rowID(record[0])),
		TankID:    dosing.TankID(record[1]),
		WeekStart: weekStart,
		SteamTons: steamTons,
	}, nil
}

func parseReading(record []string, rctx ReadingContext) (dosing.Reading, error) {
	if record[1] == "" {
		return dosing.Reading{}, fmt.Errorf("invalid tank_id: %q", record[1])
	}
	tankID := dosing.TankID(record[1])

	ts, err := time.Parse(time.RFC3339, record[2])
	if err != nil {
		return dosing.Reading{}, fmt.Errorf("invalid timestamp: %s (expected RFC 3339)", record[2])
	}

	levelCm, err := parseOptionalFloatPtr(record[4], "level_cm")
	if err != nil {
		return dosing.Reading{}, err
	}
	refillLiters, err := parseOptionalFloat(record[5], "refill_liters")
	if err != nil {
		return dosing.Reading{}, err
	}
	refillGravity, err := parseOptionalFloatPtr(record[6], "refill_gravity")
	if err != nil {
		return dosing.Reading{}, err
	}

	r := dosing.Reading{
		ID:            dosing.ReadingID(rowID(record[0])),
		TankID:        tankID,
		Timestamp:     ts,
		LevelCm:       levelCm,
		RefillLiters:  refillLiters,
		RefillGravity: refillGravity,
	}

	switch {
	case record[3] != "":
		if r.WeightKg, err = parseFloat(record[3], "weight_kg"); err != nil {
			return dosing.Reading{}, err
		}
	case levelCm != nil:
		if r.WeightKg, err = rctx.weightFromLevel(tankID, ts, *levelCm); err != nil {
			return dosing.Reading{}, err
		}
	default:
		return dosing.Reading{}, fmt.Errorf("weight_kg or level_cm required")
	}
	return r, nil
}

// =============================================================================
// FIELD PARSERS
// =============================================================================

// rowID returns the cell value, or a generated UUID when the export left
// the id column blank.
func rowID(value string) string {
	if value == "" {
		return uuid.NewString()
	}
	return value
}

func parseFloat(value, field string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", field, value)
	}
	return f, nil
}

func parseOptionalFloat(value, field string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return parseFloat(value, field)
}

func parseOptionalFloatPtr(value, field string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := parseFloat(value, field)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseDayField(value, field string) (dosing.Day, error) {
	day, err := dosing.ParseDay(value)
	if err != nil {
		return dosing.Day{}, fmt.Errorf("invalid %s: %s (expected YYYY-MM-DD)", field, value)
	}
	return day, nil
}

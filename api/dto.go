/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

WIRE FORMATS:
  - Calendar days travel as "2006-01-02" strings
  - Reading timestamps as RFC 3339 with the plant-local offset preserved
  - Money as decimal strings ("2.85"), never floats
  - theory_kg and variance_pct are null (not 0) when no process data
    backs the period; clients render blank, not zero

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
  Tank definitions are the exception: they validate through factory.TankJSON.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tank.go: TankJSON definition schema
*/
package api

import (
	"time"

	"github.com/clearwater/dosing-engine/dosing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TankDTO represents a dosing tank in API responses.
type TankDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Site   string `json:"site,omitempty"`
	System string `json:"system"`
	Method string `json:"method"`

	Shape          string  `json:"shape,omitempty"`
	DiameterCm     float64 `json:"diameter_cm,omitempty"`
	HeightCm       float64 `json:"height_cm,omitempty"`
	LengthCm       float64 `json:"length_cm,omitempty"`
	WidthCm        float64 `json:"width_cm,omitempty"`
	SensorOffsetCm float64 `json:"sensor_offset_cm,omitempty"`
	Head           string  `json:"head,omitempty"`
	LitersPerCm    float64 `json:"liters_per_cm,omitempty"`
}

// SupplyDTO represents one supply contract in API responses.
type SupplyDTO struct {
	ID              string  `json:"id"`
	TankID          string  `json:"tank_id"`
	Product         string  `json:"product"`
	EffectiveFrom   string  `json:"effective_from"`
	TargetPPM       float64 `json:"target_ppm"`
	PricePerKg      string  `json:"price_per_kg"`
	SpecificGravity float64 `json:"specific_gravity"`
}

// CreateSupplyRequest is the request to record a new supply contract.
// The tank comes from the URL; an omitted id is generated server-side.
type CreateSupplyRequest struct {
	ID              string  `json:"id,omitempty"`
	Product         string  `json:"product"`
	EffectiveFrom   string  `json:"effective_from"`
	TargetPPM       float64 `json:"target_ppm"`
	PricePerKg      string  `json:"price_per_kg,omitempty"`
	SpecificGravity float64 `json:"specific_gravity"`
}

// ReadingDTO represents one reading event.
type ReadingDTO struct {
	ID            string   `json:"id,omitempty"`
	TankID        string   `json:"tank_id"`
	Timestamp     string   `json:"timestamp"`
	WeightKg      float64  `json:"weight_kg"`
	LevelCm       *float64 `json:"level_cm,omitempty"`
	RefillLiters  float64  `json:"refill_liters,omitempty"`
	RefillGravity *float64 `json:"refill_gravity,omitempty"`
}

// AppendReadingRequest is the request to append one reading.
type AppendReadingRequest struct {
	ID            string   `json:"id,omitempty"`
	Timestamp     string   `json:"timestamp"`
	WeightKg      float64  `json:"weight_kg"`
	LevelCm       *float64 `json:"level_cm,omitempty"`
	RefillLiters  float64  `json:"refill_liters,omitempty"`
	RefillGravity *float64 `json:"refill_gravity,omitempty"`
}

// AppendReadingBatchRequest appends several readings atomically.
type AppendReadingBatchRequest struct {
	Readings []AppendReadingRequest `json:"readings"`
}

// CWSRecordDTO represents one week of cooling water parameters.
type CWSRecordDTO struct {
	ID                string  `json:"id"`
	TankID            string  `json:"tank_id"`
	WeekStart         string  `json:"week_start"`
	CirculationM3H    float64 `json:"circulation_m3h"`
	TempDiffC         float64 `json:"temp_diff_c"`
	Cycles            float64 `json:"cycles,omitempty"`
	CWSHardnessPPM    float64 `json:"cws_hardness_ppm,omitempty"`
	MakeupHardnessPPM float64 `json:"makeup_hardness_ppm,omitempty"`
}

// SaveCWSRecordRequest records one week of cooling water parameters.
type SaveCWSRecordRequest struct {
	ID                string  `json:"id,omitempty"`
	WeekStart         string  `json:"week_start"`
	CirculationM3H    float64 `json:"circulation_m3h"`
	TempDiffC         float64 `json:"temp_diff_c"`
	Cycles            float64 `json:"cycles,omitempty"`
	CWSHardnessPPM    float64 `json:"cws_hardness_ppm,omitempty"`
	MakeupHardnessPPM float64 `json:"makeup_hardness_ppm,omitempty"`
}

// BWSRecordDTO represents one week of boiler water parameters.
type BWSRecordDTO struct {
	ID        string  `json:"id"`
	TankID    string  `json:"tank_id"`
	WeekStart string  `json:"week_start"`
	SteamTons float64 `json:"steam_tons"`
}

// SaveBWSRecordRequest records one week of boiler water parameters.
type SaveBWSRecordRequest struct {
	ID        string  `json:"id,omitempty"`
	WeekStart string  `json:"week_start"`
	SteamTons float64 `json:"steam_tons"`
}

// PricePointDTO is one step of a month's contract price timeline.
type PricePointDTO struct {
	EffectiveFrom string `json:"effective_from"`
	PricePerKg    string `json:"price_per_kg"`
}

// GravityPointDTO is one step of a month's specific gravity timeline.
type GravityPointDTO struct {
	EffectiveFrom   string  `json:"effective_from"`
	SpecificGravity float64 `json:"specific_gravity"`
}

// MonthRowDTO is one tank-month of reconciled usage. The nullable fields
// deliberately lack omitempty: "no data" must arrive as an explicit null.
type MonthRowDTO struct {
	TankID      string   `json:"tank_id"`
	Month       string   `json:"month"`
	ActualKg    float64  `json:"actual_kg"`
	TheoryKg    *float64 `json:"theory_kg"`
	VariancePct *float64 `json:"variance_pct"`
	BackedDays  int      `json:"backed_days"`

	PricePerKg      *string  `json:"price_per_kg"`
	SpecificGravity *float64 `json:"specific_gravity"`
	SupplyChanged   bool     `json:"supply_changed"`

	PricePoints   []PricePointDTO   `json:"price_points,omitempty"`
	GravityPoints []GravityPointDTO `json:"gravity_points,omitempty"`

	Cost string `json:"cost"`

	// GeneratedAt is set when the row was served from a report snapshot
	// rather than computed live.
	GeneratedAt string `json:"generated_at,omitempty"`
}

// YearReportDTO is a tank's twelve month rows plus annual totals.
type YearReportDTO struct {
	TankID        string        `json:"tank_id"`
	Year          int           `json:"year"`
	Months        []MonthRowDTO `json:"months"`
	TotalActualKg float64       `json:"total_actual_kg"`
	TotalTheoryKg *float64      `json:"total_theory_kg"`
	TotalCost     string        `json:"total_cost"`
}

// DailyUsageDTO is one calendar day of actual against theoretical usage.
type DailyUsageDTO struct {
	Day      string   `json:"day"`
	ActualKg float64  `json:"actual_kg"`
	TheoryKg *float64 `json:"theory_kg"`
}

// DailyUsageResponse wraps a day range of usage rows.
type DailyUsageResponse struct {
	TankID string          `json:"tank_id"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	AsOf   string          `json:"as_of"`
	Days   []DailyUsageDTO `json:"days"`
}

// WeekUsageDTO is the weekly rollup over [week_start, week_start+7d).
type WeekUsageDTO struct {
	TankID    string   `json:"tank_id"`
	WeekStart string   `json:"week_start"`
	ActualKg  float64  `json:"actual_kg"`
	TheoryKg  *float64 `json:"theory_kg"`
}

// NoteDTO represents a report annotation.
type NoteDTO struct {
	ID        string `json:"id"`
	TankID    string `json:"tank_id,omitempty"`
	Day       string `json:"day"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateNoteRequest pins a note to a day, optionally scoped to one tank.
type CreateNoteRequest struct {
	ID     string `json:"id,omitempty"`
	TankID string `json:"tank_id,omitempty"`
	Day    string `json:"day"`
	Text   string `json:"text"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTankDTO(t dosing.Tank) TankDTO {
	return TankDTO{
		ID:     string(t.ID),
		Name:   t.Name,
		Site:   t.Site,
		System: string(t.System),
		Method: string(t.Method),

		Shape:          string(t.Shape),
		DiameterCm:     t.DiameterCm,
		HeightCm:       t.HeightCm,
		LengthCm:       t.LengthCm,
		WidthCm:        t.WidthCm,
		SensorOffsetCm: t.SensorOffsetCm,
		Head:           string(t.Head),
		LitersPerCm:    t.LitersPerCm,
	}
}

func toSupplyDTO(s dosing.ChemicalSupply) SupplyDTO {
	return SupplyDTO{
		ID:              string(s.ID),
		TankID:          string(s.TankID),
		Product:         s.Product,
		EffectiveFrom:   s.EffectiveFrom.String(),
		TargetPPM:       s.TargetPPM,
		PricePerKg:      s.Price.String(),
		SpecificGravity: s.SpecificGravity,
	}
}

func toReadingDTO(r dosing.Reading) ReadingDTO {
	return ReadingDTO{
		ID:            string(r.ID),
		TankID:        string(r.TankID),
		Timestamp:     r.Timestamp.Format(time.RFC3339),
		WeightKg:      r.WeightKg,
		LevelCm:       r.LevelCm,
		RefillLiters:  r.RefillLiters,
		RefillGravity: r.RefillGravity,
	}
}

func toCWSRecordDTO(rec dosing.CWSParameterRecord) CWSRecordDTO {
	return CWSRecordDTO{
		ID:                string(rec.ID),
		TankID:            string(rec.TankID),
		WeekStart:         rec.WeekStart.String(),
		CirculationM3H:    rec.CirculationM3H,
		TempDiffC:         rec.TempDiffC,
		Cycles:            rec.Cycles,
		CWSHardnessPPM:    rec.CWSHardnessPPM,
		MakeupHardnessPPM: rec.MakeupHardnessPPM,
	}
}

func toBWSRecordDTO(rec dosing.BWSParameterRecord) BWSRecordDTO {
	return BWSRecordDTO{
		ID:        string(rec.ID),
		TankID:    string(rec.TankID),
		WeekStart: rec.WeekStart.String(),
		SteamTons: rec.SteamTons,
	}
}

func toMonthRowDTO(row dosing.MonthRow) MonthRowDTO {
	dto := MonthRowDTO{
		TankID:      string(row.TankID),
		Month:       row.Month.String(),
		ActualKg:    row.ActualKg,
		TheoryKg:    row.TheoryKg,
		VariancePct: row.VariancePct,
		BackedDays:  row.BackedDays,

		SpecificGravity: row.SpecificGravity,
		SupplyChanged:   row.SupplyChanged,
		Cost:            row.Cost.String(),
	}
	if row.Price != nil {
		price := row.Price.String()
		dto.PricePerKg = &price
	}
	for _, p := range row.PricePoints {
		dto.PricePoints = append(dto.PricePoints, PricePointDTO{
			EffectiveFrom: p.EffectiveFrom.String(),
			PricePerKg:    p.Price.String(),
		})
	}
	for _, g := range row.GravityPoints {
		dto.GravityPoints = append(dto.GravityPoints, GravityPointDTO{
			EffectiveFrom:   g.EffectiveFrom.String(),
			SpecificGravity: g.SpecificGravity,
		})
	}
	return dto
}

func toYearReportDTO(report dosing.YearReport) YearReportDTO {
	dto := YearReportDTO{
		TankID:        string(report.TankID),
		Year:          report.Year,
		Months:        make([]MonthRowDTO, 0, len(report.Months)),
		TotalActualKg: report.TotalActualKg,
		TotalTheoryKg: report.TotalTheoryKg,
		TotalCost:     report.TotalCost.String(),
	}
	for _, row := range report.Months {
		dto.Months = append(dto.Months, toMonthRowDTO(row))
	}
	return dto
}

func toNoteDTO(n dosing.ImportantNote) NoteDTO {
	dto := NoteDTO{
		ID:     string(n.ID),
		TankID: string(n.TankID),
		Day:    n.Day.String(),
		Text:   n.Text,
	}
	if !n.CreatedAt.IsZero() {
		dto.CreatedAt = n.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

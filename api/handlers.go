/*
handlers.go - HTTP API handlers for the dosing reconciliation service

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Tanks:
    GET    /api/tanks                       List all tanks
    POST   /api/tanks                       Create tank from JSON definition
    GET    /api/tanks/{id}                  Get tank details

  Supplies & parameters:
    GET    /api/tanks/{id}/supplies         Contract history
    POST   /api/tanks/{id}/supplies         Record a new contract
    GET    /api/tanks/{id}/parameters/cws   Weekly cooling water records
    POST   /api/tanks/{id}/parameters/cws   Record a cooling water week
    GET    /api/tanks/{id}/parameters/bws   Weekly boiler water records
    POST   /api/tanks/{id}/parameters/bws   Record a boiler water week

  Readings (append-only):
    GET    /api/tanks/{id}/readings         Full reading history
    POST   /api/tanks/{id}/readings         Append one reading
    POST   /api/tanks/{id}/readings/batch   Append several atomically

  Reports:
    GET    /api/tanks/{id}/reports/{year}           Twelve month rows + totals
    GET    /api/tanks/{id}/reports/{year}/{month}   One month row
    GET    /api/tanks/{id}/snapshots/{year}         Cached month rows
    GET    /api/tanks/{id}/usage/daily?from=&to=    Per-day actual vs theory
    GET    /api/tanks/{id}/usage/weekly?start=      Seven-day rollup

  Notes:
    GET    /api/notes?from=&to=             Annotations in a day range
    POST   /api/notes                       Pin an annotation

  Scenarios (scenarios.go):
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database

ARCHITECTURE:
  Handler holds the store and the tank factory. Report endpoints assemble a
  UsageInputs snapshot from the store and run the pure engine on it; the
  handlers themselves never compute usage.

AS-OF HANDLING:
  Report endpoints accept an optional asof=YYYY-MM-DD query parameter and
  default to today. Days after the as-of day are excluded from theoretical
  sums. The month endpoint serves the cached snapshot when one exists and
  no asof override was given.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate reading)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Deploy behind the plant network boundary.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       dosing.Store
	TankFactory *factory.TankFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store dosing.Store) *Handler {
	return &Handler{
		Store:       store,
		TankFactory: factory.NewTankFactory(),
	}
}

// =============================================================================
// TANK HANDLERS
// =============================================================================

// ListTanks returns all tanks ordered by name.
func (h *Handler) ListTanks(w http.ResponseWriter, r *http.Request) {
	tanks, err := h.Store.ListTanks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tanks", err)
		return
	}

	dtos := make([]TankDTO, len(tanks))
	for i, t := range tanks {
		dtos[i] = toTankDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTank returns a single tank.
func (h *Handler) GetTank(w http.ResponseWriter, r *http.Request) {
	id := dosing.TankID(chi.URLParam(r, "id"))

	tank, err := h.Store.GetTank(r.Context(), id)
	if err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}
	writeJSON(w, http.StatusOK, toTankDTO(tank))
}

// CreateTank creates a tank from a JSON definition. The definition goes
// through the factory so invalid shapes and dimensions are rejected here,
// not discovered later as silent zero volumes.
func (h *Handler) CreateTank(w http.ResponseWriter, r *http.Request) {
	var tj factory.TankJSON
	if err := json.NewDecoder(r.Body).Decode(&tj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tank, err := h.TankFactory.FromJSON(tj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tank definition", err)
		return
	}

	if err := h.Store.SaveTank(r.Context(), tank); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tank", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTankDTO(tank))
}

// =============================================================================
// SUPPLY HANDLERS
// =============================================================================

// ListSupplies returns a tank's contract history ordered by effective day.
func (h *Handler) ListSupplies(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	supplies, err := h.Store.ListSupplies(r.Context(), tankID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list supplies", err)
		return
	}

	dtos := make([]SupplyDTO, len(supplies))
	for i, s := range supplies {
		dtos[i] = toSupplyDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSupply records a new supply contract for a tank.
func (h *Handler) CreateSupply(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	var req CreateSupplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	effective, err := dosing.ParseDay(req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_from (use YYYY-MM-DD)", err)
		return
	}

	price := decimal.Zero
	if req.PricePerKg != "" {
		price, err = decimal.NewFromString(req.PricePerKg)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid price_per_kg", err)
			return
		}
	}

	ctx := r.Context()
	if _, err := h.Store.GetTank(ctx, tankID); err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}

	supply := dosing.ChemicalSupply{
		ID:              dosing.SupplyID(req.ID),
		TankID:          tankID,
		Product:         req.Product,
		EffectiveFrom:   effective,
		TargetPPM:       req.TargetPPM,
		Price:           price,
		SpecificGravity: req.SpecificGravity,
	}
	if supply.ID == "" {
		supply.ID = dosing.SupplyID(uuid.NewString())
	}

	if err := h.Store.SaveSupply(ctx, supply); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save supply", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplyDTO(supply))
}

// =============================================================================
// PARAMETER HANDLERS
// =============================================================================

// ListCWSRecords returns a tank's weekly cooling water records.
func (h *Handler) ListCWSRecords(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	records, err := h.Store.ListCWSRecords(r.Context(), tankID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list CWS records", err)
		return
	}

	dtos := make([]CWSRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toCWSRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveCWSRecord records one week of cooling water parameters.
func (h *Handler) SaveCWSRecord(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	var req SaveCWSRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekStart, err := dosing.ParseDay(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetTank(ctx, tankID); err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}

	rec := dosing.CWSParameterRecord{
		ID:                dosing.RecordID(req.ID),
		TankID:            tankID,
		WeekStart:         weekStart,
		CirculationM3H:    req.CirculationM3H,
		TempDiffC:         req.TempDiffC,
		Cycles:            req.Cycles,
		CWSHardnessPPM:    req.CWSHardnessPPM,
		MakeupHardnessPPM: req.MakeupHardnessPPM,
	}
	if rec.ID == "" {
		rec.ID = dosing.RecordID(uuid.NewString())
	}

	if err := h.Store.SaveCWSRecord(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save CWS record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCWSRecordDTO(rec))
}

// ListBWSRecords returns a tank's weekly boiler water records.
func (h *Handler) ListBWSRecords(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	records, err := h.Store.ListBWSRecords(r.Context(), tankID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list BWS records", err)
		return
	}

	dtos := make([]BWSRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toBWSRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveBWSRecord records one week of boiler water parameters.
func (h *Handler) SaveBWSRecord(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	var req SaveBWSRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekStart, err := dosing.ParseDay(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetTank(ctx, tankID); err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}

	rec := dosing.BWSParameterRecord{
		ID:        dosing.RecordID(req.ID),
		TankID:    tankID,
		WeekStart: weekStart,
		SteamTons: req.SteamTons,
	}
	if rec.ID == "" {
		rec.ID = dosing.RecordID(uuid.NewString())
	}

	if err := h.Store.SaveBWSRecord(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save BWS record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBWSRecordDTO(rec))
}

// =============================================================================
// READING HANDLERS
// =============================================================================

// ListReadings returns a tank's full reading history ordered by timestamp.
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	readings, err := h.Store.LoadReadings(r.Context(), tankID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load readings", err)
		return
	}

	dtos := make([]ReadingDTO, len(readings))
	for i, rd := range readings {
		dtos[i] = toReadingDTO(rd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AppendReading appends one reading to a tank's history. Re-posting an ID
// that was appended before returns 409; history is never edited in place.
func (h *Handler) AppendReading(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	var req AppendReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reading, err := readingFromRequest(tankID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reading", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetTank(ctx, tankID); err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}

	if err := h.Store.AppendReading(ctx, reading); err != nil {
		storeError(w, "Failed to append reading", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReadingDTO(reading))
}

// AppendReadingBatch appends several readings atomically: either the whole
// batch lands or none of it does.
func (h *Handler) AppendReadingBatch(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	var req AppendReadingBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Readings) == 0 {
		writeError(w, http.StatusBadRequest, "Batch is empty", nil)
		return
	}

	readings := make([]dosing.Reading, 0, len(req.Readings))
	for i, rr := range req.Readings {
		reading, err := readingFromRequest(tankID, rr)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid reading at index %d", i), err)
			return
		}
		readings = append(readings, reading)
	}

	ctx := r.Context()
	if _, err := h.Store.GetTank(ctx, tankID); err != nil {
		storeError(w, "Failed to get tank", err)
		return
	}

	if err := h.Store.AppendReadingBatch(ctx, readings); err != nil {
		storeError(w, "Failed to append readings", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appended": len(readings)})
}

// readingFromRequest builds the domain reading, generating an ID when the
// client did not supply one.
func readingFromRequest(tankID dosing.TankID, req AppendReadingRequest) (dosing.Reading, error) {
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		return dosing.Reading{}, fmt.Errorf("invalid timestamp %q (use RFC 3339): %w", req.Timestamp, err)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	return dosing.Reading{
		ID:            dosing.ReadingID(id),
		TankID:        tankID,
		Timestamp:     ts,
		WeightKg:      req.WeightKg,
		LevelCm:       req.LevelCm,
		RefillLiters:  req.RefillLiters,
		RefillGravity: req.RefillGravity,
	}, nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetYearReport reconciles all twelve months of a year for one tank.
func (h *Handler) GetYearReport(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	asOf, err := dayQuery(r, "asof", dosing.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asof (use YYYY-MM-DD)", err)
		return
	}

	inputs, err := h.Store.GetUsageInputs(r.Context(), tankID)
	if err != nil {
		storeError(w, "Failed to load usage inputs", err)
		return
	}

	report := dosing.Aggregator{AsOf: asOf}.YearReport(inputs, year)
	writeJSON(w, http.StatusOK, toYearReportDTO(report))
}

// GetMonthReport reconciles one tank-month. Without an asof override the
// cached snapshot is preferred; the response then carries generated_at.
func (h *Handler) GetMonthReport(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	monthKey := dosing.NewMonthKey(year, time.Month(month))

	ctx := r.Context()
	if r.URL.Query().Get("asof") == "" {
		snap, err := h.Store.GetSnapshot(ctx, tankID, monthKey)
		if err == nil {
			dto := toMonthRowDTO(snap.Row)
			dto.GeneratedAt = snap.GeneratedAt.Format(time.RFC3339)
			writeJSON(w, http.StatusOK, dto)
			return
		}
		if !errors.Is(err, dosing.ErrSnapshotNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to read snapshot", err)
			return
		}
	}

	asOf, err := dayQuery(r, "asof", dosing.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asof (use YYYY-MM-DD)", err)
		return
	}

	inputs, err := h.Store.GetUsageInputs(ctx, tankID)
	if err != nil {
		storeError(w, "Failed to load usage inputs", err)
		return
	}

	row := dosing.Aggregator{AsOf: asOf}.MonthReport(inputs, monthKey)
	writeJSON(w, http.StatusOK, toMonthRowDTO(row))
}

// ListReportSnapshots returns the cached month rows of one year.
func (h *Handler) ListReportSnapshots(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	snaps, err := h.Store.ListSnapshots(r.Context(), tankID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	dtos := make([]MonthRowDTO, 0, len(snaps))
	for _, s := range snaps {
		dto := toMonthRowDTO(s.Row)
		dto.GeneratedAt = s.GeneratedAt.Format(time.RFC3339)
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDailyUsage returns per-day actual usage against the theoretical model
// over an inclusive day range.
func (h *Handler) GetDailyUsage(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	from, err := dayQuery(r, "from", dosing.Day{})
	if err != nil || from.IsZero() {
		writeError(w, http.StatusBadRequest, "Missing or invalid from (use YYYY-MM-DD)", err)
		return
	}
	to, err := dayQuery(r, "to", dosing.Day{})
	if err != nil || to.IsZero() {
		writeError(w, http.StatusBadRequest, "Missing or invalid to (use YYYY-MM-DD)", err)
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "Range end precedes start", nil)
		return
	}
	asOf, err := dayQuery(r, "asof", dosing.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asof (use YYYY-MM-DD)", err)
		return
	}

	inputs, err := h.Store.GetUsageInputs(r.Context(), tankID)
	if err != nil {
		storeError(w, "Failed to load usage inputs", err)
		return
	}

	daily := dosing.AllocateDailyUsage(inputs.Readings)
	resp := DailyUsageResponse{
		TankID: string(tankID),
		From:   from.String(),
		To:     to.String(),
		AsOf:   asOf.String(),
	}
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		row := DailyUsageDTO{Day: d.String(), ActualKg: daily[d]}
		if !d.After(asOf) {
			if th := dosing.DailyTheoretical(d, inputs); th.Backed {
				kg := th.Kg
				row.TheoryKg = &kg
			}
		}
		resp.Days = append(resp.Days, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetWeeklyUsage returns the rollup over the seven days from start.
func (h *Handler) GetWeeklyUsage(w http.ResponseWriter, r *http.Request) {
	tankID := dosing.TankID(chi.URLParam(r, "id"))

	start, err := dayQuery(r, "start", dosing.Day{})
	if err != nil || start.IsZero() {
		writeError(w, http.StatusBadRequest, "Missing or invalid start (use YYYY-MM-DD)", err)
		return
	}
	asOf, err := dayQuery(r, "asof", dosing.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asof (use YYYY-MM-DD)", err)
		return
	}

	inputs, err := h.Store.GetUsageInputs(r.Context(), tankID)
	if err != nil {
		storeError(w, "Failed to load usage inputs", err)
		return
	}

	usage := dosing.Aggregator{AsOf: asOf}.WeekReport(inputs, dosing.WeekWindow{Start: start})
	writeJSON(w, http.StatusOK, WeekUsageDTO{
		TankID:    string(usage.TankID),
		WeekStart: usage.Window.Start.String(),
		ActualKg:  usage.ActualKg,
		TheoryKg:  usage.TheoryKg,
	})
}

// =============================================================================
// NOTE HANDLERS
// =============================================================================

// ListNotes returns the annotations in an inclusive day range.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	from, err := dayQuery(r, "from", dosing.Day{})
	if err != nil || from.IsZero() {
		writeError(w, http.StatusBadRequest, "Missing or invalid from (use YYYY-MM-DD)", err)
		return
	}
	to, err := dayQuery(r, "to", dosing.Day{})
	if err != nil || to.IsZero() {
		writeError(w, http.StatusBadRequest, "Missing or invalid to (use YYYY-MM-DD)", err)
		return
	}

	notes, err := h.Store.ListNotes(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notes", err)
		return
	}

	dtos := make([]NoteDTO, len(notes))
	for i, n := range notes {
		dtos[i] = toNoteDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateNote pins an annotation to a day.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	day, err := dosing.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day (use YYYY-MM-DD)", err)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Note text is required", nil)
		return
	}

	note := dosing.ImportantNote{
		ID:        dosing.NoteID(req.ID),
		TankID:    dosing.TankID(req.TankID),
		Day:       day,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	if note.ID == "" {
		note.ID = dosing.NoteID(uuid.NewString())
	}

	if err := h.Store.SaveNote(r.Context(), note); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save note", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteDTO(note))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data. Demo/dev support; not wired in production
// deployments.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// storeError maps store errors onto HTTP statuses: missing records are 404,
// duplicate readings 409, other client faults 400, everything else 500.
func storeError(w http.ResponseWriter, message string, err error) {
	switch {
	case dosing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, dosing.ErrDuplicateReading):
		writeError(w, http.StatusConflict, message, err)
	case dosing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// dayQuery parses a "YYYY-MM-DD" query parameter, returning the fallback
// when the parameter is absent.
func dayQuery(r *http.Request, name string, fallback dosing.Day) (dosing.Day, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return dosing.ParseDay(raw)
}

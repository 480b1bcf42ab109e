/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates tanks, contracts,
	weekly parameters, and readings that demonstrate specific features.

AVAILABLE SCENARIOS:

	cooling-tower:   Tower on the blowdown model, running under target
	boiler-plant:    Boiler on the steam model + actual-only DeNOx tank
	contract-change: Supply contract switched mid-month (price split)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create tanks via factory presets
 3. Record supply contracts
 4. Record weekly operating parameters
 5. Append weighing readings

	All data is anchored two months back so every seeded month is fully in
	the past and reconciles the same way regardless of today's date.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "cooling-tower"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - factory/tank.go: Tank JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "cooling-tower",
		Name:        "Cooling Tower",
		Description: "Single tower on the blowdown model, dosing below target",
		Category:    "cooling",
	},
	{
		ID:          "boiler-plant",
		Name:        "Boiler Plant",
		Description: "Boiler on the steam model plus a DeNOx tank reporting actual usage only",
		Category:    "boiler",
	},
	{
		ID:          "contract-change",
		Name:        "Contract Change",
		Description: "Supply contract switched mid-month: split pricing and change flags",
		Category:    "contracts",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "cooling-tower":
		err = h.loadCoolingTowerScenario(ctx)
	case "boiler-plant":
		err = h.loadBoilerPlantScenario(ctx)
	case "contract-change":
		err = h.loadContractChangeScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// Demo data is anchored here: two months back from today, so the whole
// seeded month lies in the past for any as-of day.
func scenarioAnchor() dosing.MonthKey {
	return dosing.MonthOf(dosing.Today()).Prev().Prev()
}

// plantZone pins demo timestamps to the plant's wall clock.
var plantZone = time.FixedZone("JST", 9*60*60)

// demoReading builds a morning weighing for a demo day.
func demoReading(id string, tankID dosing.TankID, day dosing.Day, weightKg float64) dosing.Reading {
	return dosing.Reading{
		ID:        dosing.ReadingID(id),
		TankID:    tankID,
		Timestamp: time.Date(day.Year, day.Month, day.Day, 8, 0, 0, 0, plantZone),
		WeightKg:  weightKg,
	}
}

func (h *Handler) loadCoolingTowerScenario(ctx context.Context) error {
	month := scenarioAnchor()
	start := month.Start()

	tank, err := h.TankFactory.ParseTank(factory.CoolingTowerTankJSON("tank-ct-01", "Cooling Tower 1", 300, 250))
	if err != nil {
		return err
	}
	if err := h.Store.SaveTank(ctx, tank); err != nil {
		return err
	}

	// Contract: 100 g per ton of blowdown at 2.50/kg
	supply := dosing.ChemicalSupply{
		ID:              "supply-ct-01",
		TankID:          tank.ID,
		Product:         "ClearTreat 340",
		EffectiveFrom:   start.AddMonths(-6),
		TargetPPM:       100,
		Price:           decimal.RequireFromString("2.5"),
		SpecificGravity: 1.2,
	}
	if err := h.Store.SaveSupply(ctx, supply); err != nil {
		return err
	}

	// Five weeks of parameters: 1000 m3/h circulation, 5 degC differential,
	// 5 cycles. Evaporation 216 t/day, blowdown 54 t/day, theory 5.4 kg/day.
	for week := 0; week < 5; week++ {
		rec := dosing.CWSParameterRecord{
			ID:             dosing.RecordID(fmt.Sprintf("cws-ct-01-w%d", week+1)),
			TankID:         tank.ID,
			WeekStart:      start.AddDays(7 * week),
			CirculationM3H: 1000,
			TempDiffC:      5,
			Cycles:         5,
		}
		if err := h.Store.SaveCWSRecord(ctx, rec); err != nil {
			return err
		}
	}

	// Weekly weighings dropping 35 kg/week (5 kg/day, under the 5.4 target),
	// with a 440 kg refill in week five (400 L at 1.1 kg/L).
	readings := []dosing.Reading{
		demoReading("rd-ct-01-1", tank.ID, start, 500),
		demoReading("rd-ct-01-2", tank.ID, start.AddDays(7), 465),
		demoReading("rd-ct-01-3", tank.ID, start.AddDays(14), 430),
		demoReading("rd-ct-01-4", tank.ID, start.AddDays(21), 395),
		demoReading("rd-ct-01-5", tank.ID, start.AddDays(28), 800),
		demoReading("rd-ct-01-6", tank.ID, start.AddDays(35), 765),
	}
	gravity := 1.1
	readings[4].RefillLiters = 400
	readings[4].RefillGravity = &gravity
	if err := h.Store.AppendReadingBatch(ctx, readings); err != nil {
		return err
	}

	note := dosing.ImportantNote{
		ID:        "note-ct-01",
		TankID:    tank.ID,
		Day:       start.AddDays(10),
		Text:      "Tower basin inspected; dosing pump stroke left unchanged",
		CreatedAt: time.Now().UTC(),
	}
	return h.Store.SaveNote(ctx, note)
}

func (h *Handler) loadBoilerPlantScenario(ctx context.Context) error {
	month := scenarioAnchor()
	start := month.Start()

	// Boiler tank on the steam model
	boiler, err := h.TankFactory.ParseTank(factory.BoilerTankJSON("tank-blr-01", "No.1 Boiler Chemical Tank", 150, 100, 120))
	if err != nil {
		return err
	}
	if err := h.Store.SaveTank(ctx, boiler); err != nil {
		return err
	}

	supply := dosing.ChemicalSupply{
		ID:              "supply-blr-01",
		TankID:          boiler.ID,
		Product:         "SteamGuard 120",
		EffectiveFrom:   start.AddMonths(-12),
		TargetPPM:       30,
		Price:           decimal.RequireFromString("3.2"),
		SpecificGravity: 1.3,
	}
	if err := h.Store.SaveSupply(ctx, supply); err != nil {
		return err
	}

	// Five weeks at 700 t of steam: theory 3 kg/day.
	for week := 0; week < 5; week++ {
		rec := dosing.BWSParameterRecord{
			ID:        dosing.RecordID(fmt.Sprintf("bws-blr-01-w%d", week+1)),
			TankID:    boiler.ID,
			WeekStart: start.AddDays(7 * week),
			SteamTons: 700,
		}
		if err := h.Store.SaveBWSRecord(ctx, rec); err != nil {
			return err
		}
	}

	// Weekly weighings dropping 24.5 kg/week (3.5 kg/day, over the 3.0 target)
	boilerReadings := []dosing.Reading{
		demoReading("rd-blr-01-1", boiler.ID, start, 300),
		demoReading("rd-blr-01-2", boiler.ID, start.AddDays(7), 275.5),
		demoReading("rd-blr-01-3", boiler.ID, start.AddDays(14), 251),
		demoReading("rd-blr-01-4", boiler.ID, start.AddDays(21), 226.5),
		demoReading("rd-blr-01-5", boiler.ID, start.AddDays(28), 202),
		demoReading("rd-blr-01-6", boiler.ID, start.AddDays(35), 177.5),
	}
	if err := h.Store.AppendReadingBatch(ctx, boilerReadings); err != nil {
		return err
	}

	// DeNOx urea tank: legacy liters-per-cm definition, no usage model,
	// so its report rows carry actual usage with a null theory column.
	denox, err := h.TankFactory.ParseTank(factory.LegacyTankJSON("tank-dnx-01", "DeNOx Urea Tank", "DENOX", 4.2))
	if err != nil {
		return err
	}
	if err := h.Store.SaveTank(ctx, denox); err != nil {
		return err
	}

	denoxSupply := dosing.ChemicalSupply{
		ID:              "supply-dnx-01",
		TankID:          denox.ID,
		Product:         "UreaSol 40",
		EffectiveFrom:   start.AddMonths(-12),
		Price:           decimal.RequireFromString("1.8"),
		SpecificGravity: 1.11,
	}
	if err := h.Store.SaveSupply(ctx, denoxSupply); err != nil {
		return err
	}

	// Biweekly weighings at 5 kg/day covering the first 28 days
	denoxReadings := []dosing.Reading{
		demoReading("rd-dnx-01-1", denox.ID, start, 1000),
		demoReading("rd-dnx-01-2", denox.ID, start.AddDays(14), 930),
		demoReading("rd-dnx-01-3", denox.ID, start.AddDays(28), 860),
	}
	return h.Store.AppendReadingBatch(ctx, denoxReadings)
}

func (h *Handler) loadContractChangeScenario(ctx context.Context) error {
	month := scenarioAnchor()
	start := month.Start()

	tank, err := h.TankFactory.ParseTank(factory.CoolingTowerTankJSON("tank-ct-02", "Cooling Tower 2", 300, 250))
	if err != nil {
		return err
	}
	if err := h.Store.SaveTank(ctx, tank); err != nil {
		return err
	}

	// Old contract, then a richer product from the 16th of the month:
	// ppm 100 -> 120 and price 2.00 -> 2.20
	oldSupply := dosing.ChemicalSupply{
		ID:              "supply-ct-02a",
		TankID:          tank.ID,
		Product:         "ClearTreat 340",
		EffectiveFrom:   start.AddMonths(-3),
		TargetPPM:       100,
		Price:           decimal.RequireFromString("2"),
		SpecificGravity: 1.2,
	}
	if err := h.Store.SaveSupply(ctx, oldSupply); err != nil {
		return err
	}
	newSupply := dosing.ChemicalSupply{
		ID:              "supply-ct-02b",
		TankID:          tank.ID,
		Product:         "ClearTreat 380",
		EffectiveFrom:   start.AddDays(15),
		TargetPPM:       120,
		Price:           decimal.RequireFromString("2.2"),
		SpecificGravity: 1.25,
	}
	if err := h.Store.SaveSupply(ctx, newSupply); err != nil {
		return err
	}

	// Same tower parameters as the cooling-tower scenario: blowdown 54 t/day,
	// so theory steps from 5.4 to 6.48 kg/day at the contract change.
	for week := 0; week < 5; week++ {
		rec := dosing.CWSParameterRecord{
			ID:             dosing.RecordID(fmt.Sprintf("cws-ct-02-w%d", week+1)),
			TankID:         tank.ID,
			WeekStart:      start.AddDays(7 * week),
			CirculationM3H: 1000,
			TempDiffC:      5,
			Cycles:         5,
		}
		if err := h.Store.SaveCWSRecord(ctx, rec); err != nil {
			return err
		}
	}

	// Steady 5 kg/day of actual usage across the change
	readings := []dosing.Reading{
		demoReading("rd-ct-02-1", tank.ID, start, 600),
		demoReading("rd-ct-02-2", tank.ID, start.AddDays(7), 565),
		demoReading("rd-ct-02-3", tank.ID, start.AddDays(14), 530),
		demoReading("rd-ct-02-4", tank.ID, start.AddDays(21), 495),
		demoReading("rd-ct-02-5", tank.ID, start.AddDays(28), 460),
		demoReading("rd-ct-02-6", tank.ID, start.AddDays(35), 425),
	}
	if err := h.Store.AppendReadingBatch(ctx, readings); err != nil {
		return err
	}

	note := dosing.ImportantNote{
		ID:        "note-ct-02",
		Day:       start.AddDays(15),
		Text:      "Supply contract switched to ClearTreat 380 site-wide",
		CreatedAt: time.Now().UTC(),
	}
	return h.Store.SaveNote(ctx, note)
}

/*
Package factory provides JSON to Go tank conversion.

PURPOSE:
  Converts JSON tank definitions into dosing.Tank values. Tanks are set up
  by water treatment engineers, not developers; the factory validates
  definitions at this edge so the engine itself can stay forgiving about
  half-configured tanks.

JSON SCHEMA:
  {
    "id": "cws-north-1",
    "name": "North Tower Inhibitor",
    "site": "north-plant",
    "system": "COOLING",
    "method": "CWS_BLOWDOWN",
    "shape": "VERTICAL_CYLINDER",
    "diameter_cm": 120,
    "height_cm": 150,
    "sensor_offset_cm": 4
  }

VALIDATION:
  - id, name and system are required
  - system, method, shape and head must be known values
  - the configured shape's governing dimensions must be positive
  Violations return *dosing.DefinitionError, which unwraps to
  dosing.ErrInvalidDefinition and maps to HTTP 400 in the API.

DEFAULTS:
  - method defaults to NONE (the tank reports actual usage only)
  - shape may be empty: volume falls back to the liters-per-cm factor
  - head defaults to FLAT for horizontal cylinders

USAGE:
  f := factory.NewTankFactory()
  tank, err := f.ParseTank(jsonStr)

SEE ALSO:
  - dosing/types.go: Tank and the enum types
  - dosing/geometry.go: What the dimensions feed
  - api/handlers.go: CreateTank endpoint
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/clearwater/dosing-engine/dosing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TankJSON is the JSON representation of a tank definition.
type TankJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Site   string `json:"site,omitempty"`
	System string `json:"system"`
	Method string `json:"method,omitempty"`

	Shape          string  `json:"shape,omitempty"`
	DiameterCm     float64 `json:"diameter_cm,omitempty"`
	HeightCm       float64 `json:"height_cm,omitempty"`
	LengthCm       float64 `json:"length_cm,omitempty"`
	WidthCm        float64 `json:"width_cm,omitempty"`
	SensorOffsetCm float64 `json:"sensor_offset_cm,omitempty"`
	Head           string  `json:"head,omitempty"`

	LitersPerCm float64 `json:"liters_per_cm,omitempty"`
}

// =============================================================================
// TANK FACTORY
// =============================================================================

// TankFactory converts JSON tank definitions to validated dosing.Tank values.
type TankFactory struct{}

// NewTankFactory creates a new tank factory.
func NewTankFactory() *TankFactory {
	return &TankFactory{}
}

// ParseTank parses a JSON string into a validated Tank.
func (f *TankFactory) ParseTank(jsonStr string) (dosing.Tank, error) {
	var tj TankJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return dosing.Tank{}, fmt.Errorf("failed to parse tank JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// FromJSON converts TankJSON to a validated dosing.Tank.
func (f *TankFactory) FromJSON(tj TankJSON) (dosing.Tank, error) {
	if tj.ID == "" {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "id", Value: tj.ID, Reason: "required"}
	}
	if tj.Name == "" {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "name", Value: tj.Name, Reason: "required"}
	}

	system := dosing.SystemType(tj.System)
	if tj.System == "" {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "system", Value: tj.System, Reason: "required"}
	}
	if !system.Valid() {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "system", Value: tj.System, Reason: "must be COOLING, BOILER or DENOX"}
	}

	method := dosing.CalculationMethod(tj.Method)
	if tj.Method == "" {
		method = dosing.MethodNone
	}
	if !method.Valid() {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "method", Value: tj.Method, Reason: "must be NONE, CWS_BLOWDOWN or BWS_STEAM"}
	}

	shape := dosing.TankShape(tj.Shape)
	if !shape.Valid() {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "shape", Value: tj.Shape, Reason: "unknown shape"}
	}

	head := dosing.HeadType(tj.Head)
	if !head.Valid() {
		return dosing.Tank{}, &dosing.DefinitionError{Field: "head", Value: tj.Head, Reason: "unknown head type"}
	}
	if shape == dosing.ShapeHorizontalCylinder && head == "" {
		head = dosing.HeadFlat
	}

	if err := checkDimensions(tj, shape); err != nil {
		return dosing.Tank{}, err
	}

	return dosing.Tank{
		ID:     dosing.TankID(tj.ID),
		Name:   tj.Name,
		Site:   tj.Site,
		System: system,
		Method: method,

		Shape:          shape,
		DiameterCm:     tj.DiameterCm,
		HeightCm:       tj.HeightCm,
		LengthCm:       tj.LengthCm,
		WidthCm:        tj.WidthCm,
		SensorOffsetCm: tj.SensorOffsetCm,
		Head:           head,

		LitersPerCm: tj.LitersPerCm,
	}, nil
}

// ToJSON converts a Tank back to its JSON definition.
func (f *TankFactory) ToJSON(tank dosing.Tank) TankJSON {
	return TankJSON{
		ID:     string(tank.ID),
		Name:   tank.Name,
		Site:   tank.Site,
		System: string(tank.System),
		Method: string(tank.Method),

		Shape:          string(tank.Shape),
		DiameterCm:     tank.DiameterCm,
		HeightCm:       tank.HeightCm,
		LengthCm:       tank.LengthCm,
		WidthCm:        tank.WidthCm,
		SensorOffsetCm: tank.SensorOffsetCm,
		Head:           string(tank.Head),

		LitersPerCm: tank.LitersPerCm,
	}
}

// =============================================================================
// DIMENSION CHECKS
// =============================================================================

// checkDimensions enforces that no dimension is negative and that the
// configured shape's governing dimensions are present. The sensor offset is
// exempt: probes mounted above the tank floor need a negative correction.
func checkDimensions(tj TankJSON, shape dosing.TankShape) error {
	nonNegative := []struct {
		field string
		value float64
	}{
		{"diameter_cm", tj.DiameterCm},
		{"height_cm", tj.HeightCm},
		{"length_cm", tj.LengthCm},
		{"width_cm", tj.WidthCm},
		{"liters_per_cm", tj.LitersPerCm},
	}
	for _, d := range nonNegative {
		if d.value < 0 {
			return &dosing.DefinitionError{Field: d.field, Value: formatDim(d.value), Reason: "must not be negative"}
		}
	}

	switch shape {
	case dosing.ShapeVerticalCylinder:
		if tj.DiameterCm <= 0 {
			return &dosing.DefinitionError{Field: "diameter_cm", Value: formatDim(tj.DiameterCm), Reason: "required for VERTICAL_CYLINDER"}
		}
	case dosing.ShapeRectangular:
		if tj.LengthCm <= 0 {
			return &dosing.DefinitionError{Field: "length_cm", Value: formatDim(tj.LengthCm), Reason: "required for RECTANGULAR"}
		}
		if tj.WidthCm <= 0 {
			return &dosing.DefinitionError{Field: "width_cm", Value: formatDim(tj.WidthCm), Reason: "required for RECTANGULAR"}
		}
	case dosing.ShapeHorizontalCylinder:
		if tj.DiameterCm <= 0 {
			return &dosing.DefinitionError{Field: "diameter_cm", Value: formatDim(tj.DiameterCm), Reason: "required for HORIZONTAL_CYLINDER"}
		}
		if tj.LengthCm <= 0 {
			return &dosing.DefinitionError{Field: "length_cm", Value: formatDim(tj.LengthCm), Reason: "required for HORIZONTAL_CYLINDER"}
		}
	}
	return nil
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// =============================================================================
// PRESET DEFINITIONS
// =============================================================================
// JSON builders for the tank configurations the demo scenarios load. Kept
// here rather than hardcoded in the scenarios so demos exercise the same
// parse/validate path the create-tank endpoint uses.

// CoolingTowerTankJSON returns the definition of a vertical-cylinder cooling
// water inhibitor tank using the blowdown usage model.
func CoolingTowerTankJSON(id, name string, diameterCm, heightCm float64) string {
	tj := map[string]interface{}{
		"id":          id,
		"name":        name,
		"system":      "COOLING",
		"method":      "CWS_BLOWDOWN",
		"shape":       "VERTICAL_CYLINDER",
		"diameter_cm": diameterCm,
		"height_cm":   heightCm,
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}

// BoilerTankJSON returns the definition of a rectangular boiler treatment
// tank using the steam-ratio usage model.
func BoilerTankJSON(id, name string, lengthCm, widthCm, heightCm float64) string {
	tj := map[string]interface{}{
		"id":        id,
		"name":      name,
		"system":    "BOILER",
		"method":    "BWS_STEAM",
		"shape":     "RECTANGULAR",
		"length_cm": lengthCm,
		"width_cm":  widthCm,
		"height_cm": heightCm,
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}

// LegacyTankJSON returns the definition of a tank without shape data, relying
// on the linear liters-per-cm calibration factor.
func LegacyTankJSON(id, name, system string, litersPerCm float64) string {
	tj := map[string]interface{}{
		"id":            id,
		"name":          name,
		"system":        system,
		"liters_per_cm": litersPerCm,
	}
	b, _ := json.MarshalIndent(tj, "", "  ")
	return string(b)
}

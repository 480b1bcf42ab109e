package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/factory"
)

func TestParseTank_FullDefinition(t *testing.T) {
	// GIVEN: A complete horizontal cylinder definition
	f := factory.NewTankFactory()
	jsonStr := `{
		"id": "bws-east-2",
		"name": "East Boiler Polymer",
		"site": "east-plant",
		"system": "BOILER",
		"method": "BWS_STEAM",
		"shape": "HORIZONTAL_CYLINDER",
		"diameter_cm": 100,
		"length_cm": 250,
		"sensor_offset_cm": -2.5,
		"head": "HEMISPHERICAL"
	}`

	// WHEN: Parsing it
	tank, err := f.ParseTank(jsonStr)

	// THEN: Every field lands on the domain type
	require.NoError(t, err)
	assert.Equal(t, dosing.TankID("bws-east-2"), tank.ID)
	assert.Equal(t, dosing.SystemBoiler, tank.System)
	assert.Equal(t, dosing.MethodBWSSteam, tank.Method)
	assert.Equal(t, dosing.ShapeHorizontalCylinder, tank.Shape)
	assert.Equal(t, dosing.HeadHemispherical, tank.Head)
	assert.Equal(t, 100.0, tank.DiameterCm)
	assert.Equal(t, 250.0, tank.LengthCm)
	assert.Equal(t, -2.5, tank.SensorOffsetCm)
}

func TestParseTank_Defaults(t *testing.T) {
	f := factory.NewTankFactory()

	// Method omitted defaults to NONE, shape omitted is a legacy tank.
	tank, err := f.ParseTank(`{"id": "t1", "name": "Plain", "system": "DENOX", "liters_per_cm": 12.5}`)
	require.NoError(t, err)
	assert.Equal(t, dosing.MethodNone, tank.Method)
	assert.Equal(t, dosing.TankShape(""), tank.Shape)
	assert.Equal(t, 12.5, tank.LitersPerCm)

	// Horizontal cylinders without a head get flat ends.
	tank, err = f.ParseTank(`{
		"id": "t2", "name": "Drum", "system": "COOLING",
		"shape": "HORIZONTAL_CYLINDER", "diameter_cm": 80, "length_cm": 200
	}`)
	require.NoError(t, err)
	assert.Equal(t, dosing.HeadFlat, tank.Head)
}

func TestParseTank_Rejections(t *testing.T) {
	f := factory.NewTankFactory()

	cases := []struct {
		name  string
		json  string
		field string
	}{
		{
			name:  "missing id",
			json:  `{"name": "x", "system": "COOLING"}`,
			field: "id",
		},
		{
			name:  "missing system",
			json:  `{"id": "t", "name": "x"}`,
			field: "system",
		},
		{
			name:  "unknown system",
			json:  `{"id": "t", "name": "x", "system": "AQUARIUM"}`,
			field: "system",
		},
		{
			name:  "unknown method",
			json:  `{"id": "t", "name": "x", "system": "COOLING", "method": "GUESS"}`,
			field: "method",
		},
		{
			name:  "unknown shape",
			json:  `{"id": "t", "name": "x", "system": "COOLING", "shape": "SPHERE"}`,
			field: "shape",
		},
		{
			name:  "unknown head",
			json:  `{"id": "t", "name": "x", "system": "COOLING", "shape": "HORIZONTAL_CYLINDER", "diameter_cm": 80, "length_cm": 200, "head": "CONICAL"}`,
			field: "head",
		},
		{
			name:  "vertical cylinder without diameter",
			json:  `{"id": "t", "name": "x", "system": "COOLING", "shape": "VERTICAL_CYLINDER", "height_cm": 100}`,
			field: "diameter_cm",
		},
		{
			name:  "rectangular without width",
			json:  `{"id": "t", "name": "x", "system": "BOILER", "shape": "RECTANGULAR", "length_cm": 100}`,
			field: "width_cm",
		},
		{
			name:  "negative dimension",
			json:  `{"id": "t", "name": "x", "system": "COOLING", "shape": "VERTICAL_CYLINDER", "diameter_cm": -5}`,
			field: "diameter_cm",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ParseTank(tc.json)
			require.Error(t, err)
			assert.ErrorIs(t, err, dosing.ErrInvalidDefinition)

			var defErr *dosing.DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, tc.field, defErr.Field)
		})
	}
}

func TestParseTank_MalformedJSON(t *testing.T) {
	f := factory.NewTankFactory()
	_, err := f.ParseTank(`{"id": "t",`)
	require.Error(t, err)
	assert.NotErrorIs(t, err, dosing.ErrInvalidDefinition)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewTankFactory()
	original, err := f.ParseTank(factory.CoolingTowerTankJSON("cws-1", "North Tower", 120, 150))
	require.NoError(t, err)

	restored, err := f.FromJSON(f.ToJSON(original))
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestPresets_AllParse(t *testing.T) {
	f := factory.NewTankFactory()

	presets := []string{
		factory.CoolingTowerTankJSON("cws-1", "Tower", 120, 150),
		factory.BoilerTankJSON("bws-1", "Boiler", 200, 100, 120),
		factory.LegacyTankJSON("old-1", "Legacy", "DENOX", 9.8),
	}
	for _, p := range presets {
		_, err := f.ParseTank(p)
		require.NoError(t, err, "preset should parse: %s", p)
	}
}

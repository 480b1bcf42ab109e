/*
geometry.go - Tank level to liquid volume conversion

PURPOSE:
  Converts a raw level-sensor measurement (cm) into liquid volume (liters)
  for the three supported tank shapes. This is the upstream step of actual
  usage tracking: volume times specific gravity gives the chemical mass a
  reading records.

KEY CONCEPTS:
  - Fallback chain: shaped volume -> legacy linear factor -> zero. The chain
    is an explicit ordered list of strategies, each reporting success or
    absence, so the precedence is auditable and testable in isolation.
  - Sensor offset: the probe rarely sits exactly at the tank floor; the
    configured offset shifts the raw level before any shaped formula runs.
    The legacy factor path uses the raw level, matching how those factors
    were originally calibrated.
  - Horizontal cylinders: the liquid cross-section is a circular segment;
    dished end caps (hemispherical or 2:1 semi-elliptical) add partial
    spherical-cap volume on top of the cylinder body.

UNITS:
  Dimensions and levels in centimeters, so shaped formulas produce cm3;
  divide by 1000 for liters.

SEE ALSO:
  - types.go: Tank, TankShape, HeadType
  - ../importer: applies this to imported level readings
*/
package dosing

import "math"

// =============================================================================
// VOLUME - Public entry point
// =============================================================================

// VolumeLiters converts a raw sensor level to the liquid volume in the tank.
// Strategies are tried in order; a tank that satisfies none of them reports
// zero volume rather than an error.
func VolumeLiters(tank Tank, levelCm float64) float64 {
	for _, strategy := range volumeChain {
		if liters, ok := strategy.volume(tank, levelCm); ok {
			return liters
		}
	}
	return 0
}

type volumeStrategy struct {
	name   string
	volume func(tank Tank, levelCm float64) (float64, bool)
}

// volumeChain is the fallback order: detailed geometry first, then the
// legacy linear calibration factor.
var volumeChain = []volumeStrategy{
	{name: "shape", volume: shapeVolume},
	{name: "linear-factor", volume: factorVolume},
}

// =============================================================================
// STRATEGY: SHAPED VOLUME
// =============================================================================

func shapeVolume(tank Tank, levelCm float64) (float64, bool) {
	switch tank.Shape {
	case ShapeVerticalCylinder:
		return verticalCylinderVolume(tank, levelCm)
	case ShapeRectangular:
		return rectangularVolume(tank, levelCm)
	case ShapeHorizontalCylinder:
		return horizontalCylinderVolume(tank, levelCm)
	default:
		return 0, false
	}
}

// effectiveHeight applies the sensor offset and clamps to the physical fill
// range. The height cap only applies when a height is configured.
func effectiveHeight(tank Tank, levelCm float64) float64 {
	h := levelCm + tank.SensorOffsetCm
	if h < 0 {
		h = 0
	}
	if tank.HeightCm > 0 && h > tank.HeightCm {
		h = tank.HeightCm
	}
	return h
}

func verticalCylinderVolume(tank Tank, levelCm float64) (float64, bool) {
	if tank.DiameterCm <= 0 {
		return 0, false
	}
	r := tank.DiameterCm / 2
	h := effectiveHeight(tank, levelCm)
	return math.Pi * r * r * h / 1000, true
}

func rectangularVolume(tank Tank, levelCm float64) (float64, bool) {
	if tank.LengthCm <= 0 || tank.WidthCm <= 0 {
		return 0, false
	}
	h := effectiveHeight(tank, levelCm)
	return tank.LengthCm * tank.WidthCm * h / 1000, true
}

func horizontalCylinderVolume(tank Tank, levelCm float64) (float64, bool) {
	if tank.DiameterCm <= 0 || tank.LengthCm <= 0 {
		return 0, false
	}
	r := tank.DiameterCm / 2

	// Fill height for a horizontal cylinder is bounded by the diameter, not
	// the (vertical) height field.
	h := effectiveHeight(tank, levelCm)
	if h > tank.DiameterCm {
		h = tank.DiameterCm
	}

	body := tank.LengthCm * circularSegmentArea(r, h)
	heads := headVolume(tank.Head, r, h)
	return (body + heads) / 1000, true
}

// circularSegmentArea is the area of the liquid cross-section of a circle of
// radius r filled to height h from the bottom.
func circularSegmentArea(r, h float64) float64 {
	switch {
	case h <= 0:
		return 0
	case h >= 2*r:
		return math.Pi * r * r
	default:
		return r*r*math.Acos((r-h)/r) - (r-h)*math.Sqrt(2*r*h-h*h)
	}
}

// headVolume is the liquid volume held in BOTH end caps combined, filled to
// height h. The hemispherical case is the spherical-cap formula: two
// hemispherical heads together make one full sphere of radius r, so one cap
// of that sphere covers both ends. A 2:1 semi-elliptical head is a sphere
// squashed to half depth along the tank axis; slice areas scale by the same
// 0.5 at every height, so its volume is exactly half the hemispherical one.
func headVolume(head HeadType, r, h float64) float64 {
	switch head {
	case HeadHemispherical:
		return sphericalCapVolume(r, h)
	case HeadSemiElliptical:
		return 0.5 * sphericalCapVolume(r, h)
	default:
		// Flat or unconfigured heads hold nothing.
		return 0
	}
}

func sphericalCapVolume(r, h float64) float64 {
	if h <= 0 {
		return 0
	}
	if h > 2*r {
		h = 2 * r
	}
	return (math.Pi * h * h / 3) * (3*r - h)
}

// =============================================================================
// STRATEGY: LEGACY LINEAR FACTOR
// =============================================================================

// factorVolume is the calibration used before shapes were modeled: liters
// per centimeter of raw level. The sensor offset does not apply here; the
// factors were measured against raw readings.
func factorVolume(tank Tank, levelCm float64) (float64, bool) {
	if tank.LitersPerCm <= 0 {
		return 0, false
	}
	liters := levelCm * tank.LitersPerCm
	if liters < 0 {
		liters = 0
	}
	return liters, true
}

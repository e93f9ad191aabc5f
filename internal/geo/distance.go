// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package geo provides great-circle distance math and unit conversions
// shared by the geofence engine and the checkpoint verification service.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle math.
const EarthRadiusMeters = 6371000.0

// MetersPerFoot is the exact international foot definition.
const MetersPerFoot = 0.3048

// CoordinateEpsilon is the threshold for considering coordinates as effectively zero.
// DETERMINISM: A coordinate pair is considered "unknown" (sentinel value 0,0) if
// both latitude and longitude are within this epsilon of zero.
//
// Value rationale: 1e-7 degrees ≈ 1.1cm at equator, which is well below GPS accuracy
// and any meaningful coordinate difference, but provides reliable float comparison.
const CoordinateEpsilon = 1e-7

// DistanceMeters calculates the great-circle distance between two points
// on Earth using the Haversine formula. Returns distance in meters.
//
// The result is symmetric, non-negative, and zero (within floating-point
// tolerance) for identical coordinates.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	// Haversine formula
	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// FeetToMeters converts a distance in feet to meters.
// Negative input is an invalid-configuration error, never silently clamped.
func FeetToMeters(feet float64) (float64, error) {
	if feet < 0 {
		return 0, fmt.Errorf("invalid configuration: distance in feet cannot be negative (got %v)", feet)
	}
	return feet * MetersPerFoot, nil
}

// IsUnknownLocation returns true if the coordinates represent an unknown location.
// DETERMINISM: Uses epsilon comparison instead of direct float equality to handle
// floating-point precision issues. The sentinel value (0, 0) indicates that no
// position fix is available.
func IsUnknownLocation(lat, lon float64) bool {
	return math.Abs(lat) < CoordinateEpsilon && math.Abs(lon) < CoordinateEpsilon
}

// ValidCoordinates reports whether latitude and longitude fall within the
// WGS84 coordinate ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

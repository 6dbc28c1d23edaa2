package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(13.7563, 100.5018, 13.7563, 100.5018))
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude is about 111.19 km on a 6371 km sphere.
	d := Haversine(13.0, 100.5, 14.0, 100.5)
	assert.InDelta(t, 111.19, d, 0.1)
}

func TestHaversine_LongitudeShrinksWithLatitude(t *testing.T) {
	atEquator := Haversine(0, 100.0, 0, 101.0)
	atBangkok := Haversine(13.7563, 100.0, 13.7563, 101.0)
	assert.Greater(t, atEquator, atBangkok)
	assert.InDelta(t, 111.19, atEquator, 0.1)
	assert.InDelta(t, 108.0, atBangkok, 0.5)
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := Haversine(13.7563, 100.5018, 18.7883, 98.9853)
	d2 := Haversine(18.7883, 98.9853, 13.7563, 100.5018)
	assert.InDelta(t, d1, d2, 1e-9)

	// Bangkok to Chiang Mai is roughly 580 km as the crow flies.
	assert.InDelta(t, 580, d1, 10)
}

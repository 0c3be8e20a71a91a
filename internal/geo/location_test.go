package geo

import (
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
)

func TestLookupIPWithoutDatabase(t *testing.T) {
	// No GeoLite2 file is present in tests, every lookup degrades.
	location := LookupIP("203.0.113.1")
	assert.Equal(t, UnknownLocation, location)
}

func TestLocationFromRecord(t *testing.T) {
	t.Run("direct country field preferred", func(t *testing.T) {
		record := &geoip2.Country{}
		record.Country.IsoCode = "DE"
		record.Country.Names = map[string]string{"en": "Germany"}
		record.Continent.Code = "EU"
		record.Continent.Names = map[string]string{"en": "Europe"}

		loc := locationFromRecord(record)
		assert.Equal(t, "Germany", loc.Country)
		assert.Equal(t, "DE", loc.CountryISOCode)
		assert.Equal(t, "Europe", loc.Continent)
		assert.Equal(t, "EU", loc.ContinentCode)
	})

	t.Run("represented country fallback", func(t *testing.T) {
		record := &geoip2.Country{}
		record.RepresentedCountry.IsoCode = "US"
		record.RepresentedCountry.Names = map[string]string{"en": "United States"}

		loc := locationFromRecord(record)
		assert.Equal(t, "United States", loc.Country)
		assert.Equal(t, "US", loc.CountryISOCode)
	})

	t.Run("empty record reports Unknown", func(t *testing.T) {
		loc := locationFromRecord(&geoip2.Country{})
		assert.Equal(t, UnknownLocation, loc)
	})

	t.Run("continent name filled from code", func(t *testing.T) {
		record := &geoip2.Country{}
		record.Country.IsoCode = "BR"
		record.Country.Names = map[string]string{"en": "Brazil"}
		record.Continent.Code = "SA"

		loc := locationFromRecord(record)
		assert.Equal(t, "South America", loc.Continent)
		assert.Equal(t, "SA", loc.ContinentCode)
	})
}

func TestResolveCountry(t *testing.T) {
	t.Run("name resolved from iso code via gountries", func(t *testing.T) {
		name, iso := resolveCountry(map[string]string{}, "jp")
		assert.Equal(t, "Japan", name)
		assert.Equal(t, "JP", iso)
	})

	t.Run("placeholder iso code treated as unknown", func(t *testing.T) {
		name, iso := resolveCountry(nil, "--")
		assert.Equal(t, Unknown, name)
		assert.Equal(t, Unknown, iso)
	})
}

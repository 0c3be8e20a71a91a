package geo

import (
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"
)

// Location holds the geolocation fields stored on a visit.
type Location struct {
	Country        string
	CountryISOCode string
	Continent      string
	ContinentCode  string
}

// UnknownLocation is the enrichment result when nothing resolves.
var UnknownLocation = Location{
	Country:        Unknown,
	CountryISOCode: Unknown,
	Continent:      Unknown,
	ContinentCode:  Unknown,
}

var (
	countryQuery     *gountries.Query
	countryQueryOnce sync.Once
)

// continentNames maps GeoLite2 continent codes to English names, used
// when the database record carries a code without localized names.
var continentNames = map[string]string{
	"AF": "Africa",
	"AN": "Antarctica",
	"AS": "Asia",
	"EU": "Europe",
	"NA": "North America",
	"OC": "Oceania",
	"SA": "South America",
}

func getCountryQuery() *gountries.Query {
	countryQueryOnce.Do(func() {
		countryQuery = gountries.New()
	})
	return countryQuery
}

// LookupIP resolves the geolocation fields for an IP address. The
// country record is preferred; the represented country (dependent
// territories, military bases) is the fallback; anything unresolvable
// is reported as Unknown.
func LookupIP(ipAddress string) Location {
	record := lookupCountry(ipAddress)
	if record == nil {
		return UnknownLocation
	}
	return locationFromRecord(record)
}

func locationFromRecord(record *geoip2.Country) Location {
	loc := UnknownLocation

	name, iso := resolveCountry(record.Country.Names, record.Country.IsoCode)
	if name == Unknown && iso == Unknown {
		name, iso = resolveCountry(record.RepresentedCountry.Names, record.RepresentedCountry.IsoCode)
	}
	loc.Country = name
	loc.CountryISOCode = iso

	if code := record.Continent.Code; code != "" {
		loc.ContinentCode = code
		if continent, ok := record.Continent.Names["en"]; ok && continent != "" {
			loc.Continent = continent
		} else if continent, ok := continentNames[code]; ok {
			loc.Continent = continent
		}
	}

	return loc
}

// resolveCountry turns a GeoLite2 name map and ISO code into the pair
// stored on a visit, consulting gountries when the database record has
// a code but no English name.
func resolveCountry(names map[string]string, isoCode string) (string, string) {
	name := Unknown
	iso := Unknown

	if isoCode != "" && isoCode != "--" {
		iso = strings.ToUpper(isoCode)
	}

	if n, ok := names["en"]; ok && n != "" {
		name = n
	} else if iso != Unknown {
		if country, err := getCountryQuery().FindCountryByAlpha(iso); err == nil {
			name = country.Name.Common
		}
	}

	return name, iso
}

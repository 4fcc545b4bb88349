package providers

import (
	"context"
	"fmt"

	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/geoip"
)

// Legacy looks countries up in legacy GeoIP Country database.
//
// Database is opened on each lookup. Any failure results in default
// location. Failures are not logged.
type Legacy struct {
	path string
}

func (l *Legacy) Name() string {
	return NameLegacy
}

func (l *Legacy) Lookup(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}

	db, err := geoip.Open(l.path)
	if err != nil {
		return rv, fmt.Errorf("%w: %v", geolib.ErrBackendUnavailable, err)
	}

	countryCode, _ := db.GetCountry(ip)

	countryCode = geolib.NormalizeAlpha2Code(countryCode)
	if countryCode == "" {
		return rv, fmt.Errorf("%w: %s", geolib.ErrAddressNotFound, ip)
	}

	countryName, ok := geolib.CountryName(countryCode)
	if !ok {
		return rv, fmt.Errorf("%w: unknown country code %s", geolib.ErrAddressNotFound, countryCode)
	}

	rv.IP = ip
	rv.ISOCode = countryCode
	rv.Country = countryName
	rv.ContinentCode = geolib.OptionalString(geolib.ContinentCode(countryCode))

	return rv, nil
}

func (l *Legacy) Recovers(err error) bool {
	return true
}

// NewLegacy creates a backend for legacy database at path.
func NewLegacy(path string) *Legacy {
	return &Legacy{
		path: path,
	}
}

package geolib

import (
	"encoding/json"
	"fmt"
)

// ServiceKind is a name of the backend which has to be used for
// lookups.
type ServiceKind string

const (
	ServiceMaxmindDatabase   ServiceKind = "maxmind-database"
	ServiceMaxmindWebService ServiceKind = "maxmind-web-service"
	ServiceLegacy            ServiceKind = "legacy"
)

// Config defines a behaviour of GeoResolver.
//
// DefaultLocation is a set of overrides for DefaultLocation(). Keys are
// the same as JSON keys of Location. Only given keys are overridden.
type Config struct {
	Service         ServiceKind
	DefaultLocation map[string]interface{}
}

// DefaultLocation returns a built-in location which is used if nothing
// else is configured.
func DefaultLocation() Location {
	return Location{
		IP:            "127.0.0.1",
		ISOCode:       "ZA",
		Country:       "South Africa",
		City:          OptionalString("Johannesburg"),
		Region:        OptionalString("GP"),
		PostalCode:    OptionalString("2195"),
		Latitude:      OptionalFloat(-29.0),
		Longitude:     OptionalFloat(24.0),
		Timezone:      OptionalString("Africa/Johannesburg"),
		ContinentCode: OptionalString("AF"),
		IsDefault:     true,
	}
}

// MergeDefaultLocation puts overrides over the built-in default
// location. Resulting location is always marked as default.
func MergeDefaultLocation(overrides map[string]interface{}) (Location, error) {
	rv := DefaultLocation()

	if len(overrides) == 0 {
		return rv, nil
	}

	encoded, err := json.Marshal(overrides)
	if err != nil {
		return rv, fmt.Errorf("cannot encode default location: %w", err)
	}

	if err := json.Unmarshal(encoded, &rv); err != nil {
		return DefaultLocation(), fmt.Errorf("incorrect default location: %w", err)
	}

	rv.IsDefault = true

	return rv, nil
}

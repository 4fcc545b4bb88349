package geolib

// Location is a result of geolocation. Optional fields are nil if
// backend cannot provide them: for example, legacy databases know
// nothing about cities.
//
// JSON field names follow a default_location section of the config.
type Location struct {
	IP            string   `json:"ip"`
	ISOCode       string   `json:"isoCode"`
	Country       string   `json:"country"`
	City          *string  `json:"city"`
	Region        *string  `json:"state"`
	PostalCode    *string  `json:"postal_code"`
	Latitude      *float64 `json:"lat"`
	Longitude     *float64 `json:"lon"`
	Timezone      *string  `json:"timezone"`
	ContinentCode *string  `json:"continent"`
	IsDefault     bool     `json:"default"`
}

// OK tells if location was produced by a backend.
func (l *Location) OK() bool {
	return !l.IsDefault
}

// OptionalString converts a value into optional field of Location. Empty
// strings are absent values.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}

// OptionalFloat converts a value into optional field of Location.
func OptionalFloat(value float64) *float64 {
	return &value
}

// Clone returns a deep copy of the location: optional fields of the copy
// point to their own values.
func (l Location) Clone() Location {
	l.City = cloneString(l.City)
	l.Region = cloneString(l.Region)
	l.PostalCode = cloneString(l.PostalCode)
	l.Latitude = cloneFloat(l.Latitude)
	l.Longitude = cloneFloat(l.Longitude)
	l.Timezone = cloneString(l.Timezone)
	l.ContinentCode = cloneString(l.ContinentCode)

	return l
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}

	rv := *value

	return &rv
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}

	rv := *value

	return &rv
}

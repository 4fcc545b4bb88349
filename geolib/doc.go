// This package resolves client IP addresses to an approximate geographic
// location.
//
// geolib is core of the geolocator project. The rest of the application
// is a thin wrapper around it: it reads a config, builds backends and
// serves results over HTTP.
//
// GeoResolver is a main entity of the geolib. It knows a client address
// of the request it was created for, filters out reserved and
// non-routable addresses, dispatches lookups to a configured Backend and
// falls back to a default location if a real one cannot be determined.
//
// Callers have to check Location.IsDefault to understand if geolocation
// worked. The only error which is always surfaced is
// ErrUnsupportedService.
package geolib

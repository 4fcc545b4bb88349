package geolib

import (
	"context"
	"net/http"
	"time"
)

// Backend turns an eligible IP address into a location.
//
// Lookup has to return ErrAddressNotFound if database has no data about
// the address and ErrBackendUnavailable if database or web service
// cannot be used at all. Recovers tells GeoResolver which of these
// failures have to be replaced with a default location. Errors which
// are not recovered are returned to the caller as is.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Location, error)
	Recovers(err error) bool
}

// Logger is an interface for structured logging of geolocation events.
type Logger interface {
	LookupError(ip, backend string, err error)
	ResolveError(ip string, err error)
	UpdateInfo(name, msg string)
	UpdateError(name string, err error)
}

// DatabaseUpdater is implemented by backends which can refresh their
// databases from some remote source.
type DatabaseUpdater interface {
	Name() string
	UpdateEvery() time.Duration
	Update(ctx context.Context) error
}

// HTTPClient is an interface of HTTP client for web service backends.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

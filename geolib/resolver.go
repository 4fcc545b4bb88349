package geolib

import (
	"context"
	"fmt"
	"sync"
)

// GeoResolver geolocates a client it was created for or any given IP
// address.
//
// It remembers a location of its client: first successful call of
// Location is cached and returned for all subsequent calls. Lookups of
// explicit addresses with LocationOf neither read nor write this cache.
type GeoResolver struct {
	service         ServiceKind
	backends        map[string]Backend
	clientIP        string
	defaultLocation Location

	mutex  sync.Mutex
	cached *Location
}

// ClientIP returns an address of the client detected on construction.
func (g *GeoResolver) ClientIP() string {
	return g.clientIP
}

// DefaultLocation returns a location which is used when geolocation is
// impossible. Its IP is an address of the client.
func (g *GeoResolver) DefaultLocation() Location {
	return g.defaultLocation.Clone()
}

// Location geolocates the client of this resolver.
func (g *GeoResolver) Location(ctx context.Context) (Location, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.cached != nil {
		return g.cached.Clone(), nil
	}

	location, err := g.resolve(ctx, g.clientIP)
	if err != nil {
		return location, err
	}

	cached := location.Clone()
	g.cached = &cached

	return location, nil
}

// LocationOf geolocates given address.
func (g *GeoResolver) LocationOf(ctx context.Context, ip string) (Location, error) {
	return g.resolve(ctx, ip)
}

// resolve never returns values which share memory with the resolver
// state: callers are free to modify them.
func (g *GeoResolver) resolve(ctx context.Context, ip string) (Location, error) {
	if !IsEligible(ip) {
		return g.DefaultLocation(), nil
	}

	backend, ok := g.backends[string(g.service)]
	if !ok {
		return g.DefaultLocation(), fmt.Errorf("%w: %s", ErrUnsupportedService, g.service)
	}

	location, err := backend.Lookup(ctx, ip)

	switch {
	case err == nil:
		return location, nil
	case backend.Recovers(err):
		return g.DefaultLocation(), nil
	}

	return g.DefaultLocation(), fmt.Errorf("cannot lookup %s with %s: %w", ip, backend.Name(), err)
}

// NewGeoResolver creates a new resolver for a client described by
// environment. Backends are indexed by their names; a backend is chosen
// according to Config.Service on each lookup.
func NewGeoResolver(conf Config, env Environment, backends []Backend) (*GeoResolver, error) {
	defaultLocation, err := MergeDefaultLocation(conf.DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("cannot build default location: %w", err)
	}

	rv := &GeoResolver{
		service:         conf.Service,
		backends:        make(map[string]Backend, len(backends)),
		clientIP:        ClientAddress(env),
		defaultLocation: defaultLocation,
	}

	rv.defaultLocation.IP = rv.clientIP

	for _, v := range backends {
		rv.backends[v.Name()] = v
	}

	return rv, nil
}

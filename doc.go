// Geolocator resolves geolocation data of clients by their IP
// addresses.
//
// The job is split between a couple of packages:
//
// # Geolib
//
// geolib has a core of the application: GeoResolver which picks a
// client address from an environment, filters out reserved ranges
// and asks a configured backend about a location. Any recoverable
// failure turns into a default location. It also has an HTTP API
// which can be mounted as http.Handler.
//
// # Providers
//
// Backend implementations: MaxMind GeoIP2 database, MaxMind GeoIP2
// Precision web service and a legacy GeoIP Country database.
//
// # Legacydb
//
// A reader of legacy GeoIP Country databases.
//
// This package wires everything together and provides CLI with two
// commands: serve runs HTTP server, resolve prints locations of given
// addresses as JSON.
package main

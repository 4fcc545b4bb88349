package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/spf13/afero"
)

// geoip2.City cannot tell absent coordinates from zero ones.
type maxmindCoordinates struct {
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// MaxmindDatabase looks addresses up in GeoIP2/GeoLite2 City database.
//
// A database is opened on a first lookup and kept open until Close.
// MaxmindDatabaseUpdater may replace it with a fresh one.
type MaxmindDatabase struct {
	fs     afero.Fs
	path   string
	logger geolib.Logger

	dbReader     *maxminddb.Reader
	dbReaderLock sync.Mutex
}

func (m *MaxmindDatabase) Name() string {
	return NameMaxmindDatabase
}

func (m *MaxmindDatabase) Lookup(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}

	reader, err := m.getReader()
	if err != nil {
		return rv, err
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return rv, fmt.Errorf("incorrect ip address %s", ip)
	}

	offset, err := reader.LookupOffset(parsedIP)
	if err != nil {
		return rv, fmt.Errorf("cannot lookup this ip address: %w", err)
	}

	if offset == maxminddb.NotFound {
		err := fmt.Errorf("%w: %s", geolib.ErrAddressNotFound, ip)

		m.logger.LookupError(ip, m.Name(), err)

		return rv, err
	}

	record := geoip2.City{}
	if err := reader.Decode(offset, &record); err != nil {
		return rv, fmt.Errorf("cannot decode a record: %w", err)
	}

	coordinates := maxmindCoordinates{}
	if err := reader.Decode(offset, &coordinates); err != nil {
		return rv, fmt.Errorf("cannot decode coordinates: %w", err)
	}

	rv = maxmindDatabaseLocation(ip, &record)
	rv.Latitude = coordinates.Location.Latitude
	rv.Longitude = coordinates.Location.Longitude

	return rv, nil
}

// Recovers is true only for addresses which are absent in database.
// Broken or missing database is an error.
func (m *MaxmindDatabase) Recovers(err error) bool {
	return errors.Is(err, geolib.ErrAddressNotFound)
}

// Close releases a database if it was opened. It must not be called
// concurrently with lookups.
func (m *MaxmindDatabase) Close() error {
	m.dbReaderLock.Lock()
	defer m.dbReaderLock.Unlock()

	if m.dbReader == nil {
		return nil
	}

	err := m.dbReader.Close()
	m.dbReader = nil

	return err
}

// setReader replaces a database reader. A replaced reader is not
// closed: it is built from bytes and lookups in flight may still use it.
func (m *MaxmindDatabase) setReader(reader *maxminddb.Reader) {
	m.dbReaderLock.Lock()
	m.dbReader = reader
	m.dbReaderLock.Unlock()
}

func (m *MaxmindDatabase) getReader() (*maxminddb.Reader, error) {
	m.dbReaderLock.Lock()
	defer m.dbReaderLock.Unlock()

	if m.dbReader != nil {
		return m.dbReader, nil
	}

	content, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read a database: %v", geolib.ErrBackendUnavailable, err)
	}

	reader, err := maxminddb.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot initialize a reader of maxminddb: %v", geolib.ErrBackendUnavailable, err)
	}

	m.dbReader = reader

	return reader, nil
}

func maxmindDatabaseLocation(ip string, record *geoip2.City) geolib.Location {
	rv := geolib.Location{
		IP:            ip,
		ISOCode:       record.Country.IsoCode,
		Country:       record.Country.Names["en"],
		City:          geolib.OptionalString(record.City.Names["en"]),
		PostalCode:    geolib.OptionalString(record.Postal.Code),
		Timezone:      geolib.OptionalString(record.Location.TimeZone),
		ContinentCode: geolib.OptionalString(record.Continent.Code),
	}

	if len(record.Subdivisions) > 0 {
		rv.Region = geolib.OptionalString(record.Subdivisions[len(record.Subdivisions)-1].IsoCode)
	}

	return rv
}

// NewMaxmindDatabase creates a backend for the database at path.
// Nothing is opened until a first lookup.
func NewMaxmindDatabase(fs afero.Fs, path string, logger geolib.Logger) *MaxmindDatabase {
	return &MaxmindDatabase{
		fs:     fs,
		path:   path,
		logger: logger,
	}
}

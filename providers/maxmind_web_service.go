package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/savaki/geoip2"
	"golang.org/x/time/rate"
)

// error codes of the web service which mean that there is nothing to
// tell about the address.
var maxmindWebServiceNotFoundCodes = [...]string{
	"IP_ADDRESS_NOT_FOUND",
	"IP_ADDRESS_RESERVED",
}

type maxmindCityAPI interface {
	City(ctx context.Context, ip string) (geoip2.Response, error)
}

// MaxmindWebService looks addresses up with GeoIP2 Precision City web
// service.
//
// A client is created on a first lookup and reused afterwards.
type MaxmindWebService struct {
	userID      string
	licenseKey  string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      geolib.Logger

	client     maxmindCityAPI
	clientLock sync.Mutex
}

func (m *MaxmindWebService) Name() string {
	return NameMaxmindWebService
}

func (m *MaxmindWebService) Lookup(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}

	client, err := m.getClient()
	if err != nil {
		return rv, err
	}

	if err := m.rateLimiter.Wait(ctx); err != nil {
		return rv, fmt.Errorf("rate limiter has rejected a request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	response, err := client.City(ctx, ip)
	if err != nil {
		if isMaxmindNotFound(err) {
			err = fmt.Errorf("%w: %v", geolib.ErrAddressNotFound, err)

			m.logger.LookupError(ip, m.Name(), err)

			return rv, err
		}

		return rv, fmt.Errorf("%w: %v", geolib.ErrBackendUnavailable, err)
	}

	rv.IP = ip
	rv.ISOCode = response.Country.IsoCode
	rv.Country = response.Country.Names["en"]
	rv.City = geolib.OptionalString(response.City.Names["en"])
	rv.PostalCode = geolib.OptionalString(response.Postal.Code)
	rv.ContinentCode = geolib.OptionalString(response.Continent.Code)
	rv.Timezone = geolib.OptionalString(response.Location.TimeZone)

	if len(response.Subdivisions) > 0 {
		rv.Region = geolib.OptionalString(response.Subdivisions[len(response.Subdivisions)-1].IsoCode)
	}

	if response.Location.AccuracyRadius != 0 {
		rv.Latitude = geolib.OptionalFloat(response.Location.Latitude)
		rv.Longitude = geolib.OptionalFloat(response.Location.Longitude)
	}

	return rv, nil
}

// Recovers is true only for addresses which are unknown to the web
// service. Authorization or network problems are errors.
func (m *MaxmindWebService) Recovers(err error) bool {
	return errors.Is(err, geolib.ErrAddressNotFound)
}

func (m *MaxmindWebService) getClient() (maxmindCityAPI, error) {
	m.clientLock.Lock()
	defer m.clientLock.Unlock()

	if m.client != nil {
		return m.client, nil
	}

	if m.userID == "" || m.licenseKey == "" {
		return nil, fmt.Errorf("%w: %v", geolib.ErrBackendUnavailable, ErrAuthTokenIsRequired)
	}

	m.client = geoip2.New(m.userID, m.licenseKey)

	return m.client, nil
}

func isMaxmindNotFound(err error) bool {
	text := err.Error()

	for _, v := range maxmindWebServiceNotFoundCodes {
		if strings.Contains(text, v) {
			return true
		}
	}

	return false
}

// NewMaxmindWebService creates a backend for GeoIP2 Precision City web
// service. Each request is limited by timeout; requests are throttled
// with a rate limiter.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a meaning
// of rate limiter parameters.
func NewMaxmindWebService(userID, licenseKey string,
	timeout time.Duration,
	rateLimitInterval time.Duration,
	rateLimitBurst int,
	logger geolib.Logger) *MaxmindWebService {
	return &MaxmindWebService{
		userID:      userID,
		licenseKey:  licenseKey,
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitInterval), rateLimitBurst),
		logger:      logger,
	}
}

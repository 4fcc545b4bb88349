package providers_test

import (
	"bytes"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/jarcoal/httpmock"
	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) LookupError(ip, name string, err error) {
	m.Called(ip, name, err)
}

func (m *LoggerMock) ResolveError(ip string, err error) {
	m.Called(ip, err)
}

func (m *LoggerMock) UpdateInfo(name, msg string) {
	m.Called(name, msg)
}

func (m *LoggerMock) UpdateError(name string, err error) {
	m.Called(name, err)
}

type countingFs struct {
	afero.Fs

	opens int32
}

func (c *countingFs) Open(name string) (afero.File, error) {
	atomic.AddInt32(&c.opens, 1)

	return c.Fs.Open(name)
}

func (c *countingFs) Opens() int {
	return int(atomic.LoadInt32(&c.opens))
}

type ProviderTestSuite struct {
	suite.Suite

	fs      *countingFs
	logMock *LoggerMock
}

func (suite *ProviderTestSuite) SetupTest() {
	suite.fs = &countingFs{Fs: afero.NewMemMapFs()}
	suite.logMock = &LoggerMock{}
}

func (suite *ProviderTestSuite) TearDownTest() {
	suite.logMock.AssertExpectations(suite.T())
}

func (suite *ProviderTestSuite) WriteFile(path string, data []byte) {
	suite.Require().NoError(afero.WriteFile(suite.fs, path, data, 0644))
}

// MakeMaxmindDatabase generates a small GeoIP2-City database.
//
//	81.2.69.0/24    - London, GB
//	196.25.0.0/16   - South Africa, no city and coordinates
//	2a02:c7f::/32   - GB, no city
//	41.0.0.0/16     - Ghana, coordinates are 0,0
func (suite *ProviderTestSuite) MakeMaxmindDatabase() []byte {
	writer, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: "GeoIP2-City",
		RecordSize:   24,
	})
	suite.Require().NoError(err)

	names := func(name string) mmdbtype.Map {
		return mmdbtype.Map{"en": mmdbtype.String(name)}
	}

	records := map[string]mmdbtype.Map{
		"81.2.69.0/24": {
			"city":      mmdbtype.Map{"names": names("London")},
			"continent": mmdbtype.Map{"code": mmdbtype.String("EU")},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("GB"),
				"names":    names("United Kingdom"),
			},
			"location": mmdbtype.Map{
				"latitude":  mmdbtype.Float64(51.5142),
				"longitude": mmdbtype.Float64(-0.0931),
				"time_zone": mmdbtype.String("Europe/London"),
			},
			"postal": mmdbtype.Map{"code": mmdbtype.String("EC2V")},
			"subdivisions": mmdbtype.Slice{
				mmdbtype.Map{"iso_code": mmdbtype.String("ENG")},
				mmdbtype.Map{"iso_code": mmdbtype.String("LND")},
			},
		},
		"196.25.0.0/16": {
			"continent": mmdbtype.Map{"code": mmdbtype.String("AF")},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("ZA"),
				"names":    names("South Africa"),
			},
		},
		"41.0.0.0/16": {
			"continent": mmdbtype.Map{"code": mmdbtype.String("AF")},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("GH"),
				"names":    names("Ghana"),
			},
			"location": mmdbtype.Map{
				"latitude":  mmdbtype.Float64(0),
				"longitude": mmdbtype.Float64(0),
			},
		},
		"2a02:c7f::/32": {
			"continent": mmdbtype.Map{"code": mmdbtype.String("EU")},
			"country": mmdbtype.Map{
				"iso_code": mmdbtype.String("GB"),
				"names":    names("United Kingdom"),
			},
		},
	}

	for cidr, record := range records {
		_, network, err := net.ParseCIDR(cidr)
		suite.Require().NoError(err)
		suite.Require().NoError(writer.Insert(network, record))
	}

	buf := &bytes.Buffer{}

	_, err = writer.WriteTo(buf)
	suite.Require().NoError(err)

	return buf.Bytes()
}

type MockedProviderTestSuite struct {
	ProviderTestSuite

	http geolib.HTTPClient
}

func (suite *MockedProviderTestSuite) SetupSuite() {
	httpmock.Activate()
}

func (suite *MockedProviderTestSuite) TearDownSuite() {
	httpmock.DeactivateAndReset()
}

func (suite *MockedProviderTestSuite) SetupTest() {
	suite.ProviderTestSuite.SetupTest()

	suite.http = geolib.NewHTTPClient(&http.Client{},
		"test-agent",
		time.Millisecond,
		100)
}

func (suite *MockedProviderTestSuite) TearDownTest() {
	suite.ProviderTestSuite.TearDownTest()
	httpmock.Reset()
}

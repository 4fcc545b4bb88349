package geolib_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/9seconds/geolocator/geolib"
	"github.com/qri-io/jsonschema"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var jsonSchemaLocation = `{
    "type": "object",
    "required": [
        "ip",
        "isoCode",
        "country",
        "city",
        "state",
        "postal_code",
        "lat",
        "lon",
        "timezone",
        "continent",
        "default"
    ],
    "additionalProperties": false,
    "properties": {
        "ip": {"type": "string"},
        "isoCode": {"type": "string"},
        "country": {"type": "string"},
        "city": {"type": ["string", "null"]},
        "state": {"type": ["string", "null"]},
        "postal_code": {"type": ["string", "null"]},
        "lat": {"type": ["number", "null"]},
        "lon": {"type": ["number", "null"]},
        "timezone": {"type": ["string", "null"]},
        "continent": {"type": ["string", "null"]},
        "default": {"type": "boolean"}
    }
}`

var (
	jsonSchemaGETResolve = func() *jsonschema.Schema {
		data := `{
            "type": "object",
            "required": ["result"],
            "additionalProperties": false,
            "properties": {
                "result": ` + jsonSchemaLocation + `
            }
        }`

		rv := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(data), rv); err != nil {
			panic(err)
		}

		return rv
	}()

	jsonSchemaPOSTResolve = func() *jsonschema.Schema {
		data := `{
            "type": "object",
            "required": ["results"],
            "additionalProperties": false,
            "properties": {
                "results": {
                    "type": "array",
                    "items": ` + jsonSchemaLocation + `
                }
            }
        }`

		rv := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(data), rv); err != nil {
			panic(err)
		}

		return rv
	}()

	jsonSchemaError = func() *jsonschema.Schema {
		data := `{
            "type": "object",
            "required": ["error"],
            "additionalProperties": false,
            "properties": {
                "error": {
                    "type": "object",
                    "required": ["message", "context"],
                    "additionalProperties": false,
                    "properties": {
                        "message": {"type": "string", "minLength": 1},
                        "context": {"type": "string"}
                    }
                }
            }
        }`

		rv := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(data), rv); err != nil {
			panic(err)
		}

		return rv
	}()
)

type HTTPHandlerTestSuite struct {
	suite.Suite

	backendMock *BackendMock
	loggerMock  *LoggerMock
	conf        geolib.Config
	handler     *geolib.HTTPHandler
}

func (suite *HTTPHandlerTestSuite) SetupTest() {
	suite.backendMock = &BackendMock{}
	suite.loggerMock = &LoggerMock{}
	suite.conf = geolib.Config{
		Service: geolib.ServiceLegacy,
	}

	suite.backendMock.On("Name").Return(string(geolib.ServiceLegacy))
	suite.makeHandler()
}

func (suite *HTTPHandlerTestSuite) makeHandler() {
	if suite.handler != nil {
		suite.handler.Shutdown()
	}

	handler, err := geolib.NewHTTPHandler(suite.conf,
		[]geolib.Backend{suite.backendMock},
		suite.loggerMock,
		4)

	suite.NoError(err)

	suite.handler = handler
}

func (suite *HTTPHandlerTestSuite) TearDownTest() {
	suite.handler.Shutdown()
	suite.handler = nil

	suite.backendMock.AssertExpectations(suite.T())
	suite.loggerMock.AssertExpectations(suite.T())
}

func (suite *HTTPHandlerTestSuite) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()

	suite.handler.ServeHTTP(rec, req)
	suite.Equal("application/json", rec.Header().Get("Content-Type"))

	return rec
}

func (suite *HTTPHandlerTestSuite) Validate(schema *jsonschema.Schema, body []byte) {
	errs, err := schema.ValidateBytes(context.Background(), body)

	suite.NoError(err)
	suite.Empty(errs)
}

func (suite *HTTPHandlerTestSuite) TestGetSelf() {
	req := httptest.NewRequest("GET", "/", nil)

	req.Header.Set("X-Forwarded-For", "196.25.1.1")

	suite.backendMock.
		On("Lookup", mock.Anything, "196.25.1.1").
		Return(geolib.Location{IP: "196.25.1.1", ISOCode: "ZA", Country: "South Africa"}, nil).
		Once()

	rec := suite.Do(req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Validate(jsonSchemaGETResolve, rec.Body.Bytes())
	suite.JSONEq(`{"result": {
        "ip": "196.25.1.1",
        "isoCode": "ZA",
        "country": "South Africa",
        "city": null,
        "state": null,
        "postal_code": null,
        "lat": null,
        "lon": null,
        "timezone": null,
        "continent": null,
        "default": false
    }}`, rec.Body.String())
}

func (suite *HTTPHandlerTestSuite) TestGetSelfPrivate() {
	req := httptest.NewRequest("GET", "/", nil)

	req.RemoteAddr = "10.0.0.1:4000"

	rec := suite.Do(req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Validate(jsonSchemaGETResolve, rec.Body.Bytes())

	resp := struct {
		Result geolib.Location `json:"result"`
	}{}

	suite.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.True(resp.Result.IsDefault)
	suite.Equal("10.0.0.1", resp.Result.IP)
	suite.Equal("ZA", resp.Result.ISOCode)
}

func (suite *HTTPHandlerTestSuite) TestGetIP() {
	req := httptest.NewRequest("GET", "/81.2.69.142", nil)

	suite.backendMock.
		On("Lookup", mock.Anything, "81.2.69.142").
		Return(geolib.Location{IP: "81.2.69.142", ISOCode: "GB", Country: "United Kingdom"}, nil).
		Once()

	rec := suite.Do(req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Validate(jsonSchemaGETResolve, rec.Body.Bytes())
	suite.Contains(rec.Body.String(), `"isoCode":"GB"`)
}

func (suite *HTTPHandlerTestSuite) TestGetIPFailed() {
	err := errors.New("boom")
	req := httptest.NewRequest("GET", "/81.2.69.142", nil)

	suite.backendMock.On("Lookup", mock.Anything, "81.2.69.142").Return(geolib.Location{}, err).Once()
	suite.backendMock.On("Recovers", err).Return(false)
	suite.loggerMock.On("ResolveError", "81.2.69.142", mock.Anything).Once()

	rec := suite.Do(req)

	suite.Equal(http.StatusBadGateway, rec.Code)
	suite.Validate(jsonSchemaError, rec.Body.Bytes())
}

func (suite *HTTPHandlerTestSuite) TestUnsupportedService() {
	suite.conf.Service = "bogus"
	suite.makeHandler()

	req := httptest.NewRequest("GET", "/81.2.69.142", nil)

	suite.loggerMock.On("ResolveError", "81.2.69.142", mock.Anything).Once()

	rec := suite.Do(req)

	suite.Equal(http.StatusNotImplemented, rec.Code)
	suite.Validate(jsonSchemaError, rec.Body.Bytes())
}

func (suite *HTTPHandlerTestSuite) TestPost() {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"ips": ["81.2.69.142", "10.0.0.1", "196.25.1.1"]}`))

	req.Header.Set("Content-Type", "application/json")

	suite.backendMock.
		On("Lookup", mock.Anything, "81.2.69.142").
		Return(geolib.Location{IP: "81.2.69.142", ISOCode: "GB", Country: "United Kingdom"}, nil).
		Once()
	suite.backendMock.
		On("Lookup", mock.Anything, "196.25.1.1").
		Return(geolib.Location{}, geolib.ErrAddressNotFound).
		Once()
	suite.backendMock.On("Recovers", geolib.ErrAddressNotFound).Return(true)

	rec := suite.Do(req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Validate(jsonSchemaPOSTResolve, rec.Body.Bytes())

	resp := struct {
		Results []geolib.Location `json:"results"`
	}{}

	suite.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Len(resp.Results, 3)
	suite.Equal("GB", resp.Results[0].ISOCode)
	suite.False(resp.Results[0].IsDefault)
	suite.True(resp.Results[1].IsDefault)
	suite.True(resp.Results[2].IsDefault)
}

func (suite *HTTPHandlerTestSuite) TestPostIncorrectContentType() {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"ips": ["81.2.69.142"]}`))

	req.Header.Set("Content-Type", "text/plain")

	rec := suite.Do(req)

	suite.Equal(http.StatusUnsupportedMediaType, rec.Code)
	suite.Validate(jsonSchemaError, rec.Body.Bytes())
}

func (suite *HTTPHandlerTestSuite) TestPostIncorrectBody() {
	testData := []string{
		`{}`,
		`{"ips": []}`,
		`{"ips": [1]}`,
		`{"ips": ["81.2.69.142"], "extra": true}`,
		`[`,
	}

	for _, v := range testData {
		req := httptest.NewRequest("POST", "/", strings.NewReader(v))

		req.Header.Set("Content-Type", "application/json")

		rec := suite.Do(req)

		suite.Equal(http.StatusBadRequest, rec.Code, v)
		suite.Validate(jsonSchemaError, rec.Body.Bytes())
	}
}

func (suite *HTTPHandlerTestSuite) TestStats() {
	req := httptest.NewRequest("GET", "/81.2.69.142", nil)

	suite.backendMock.
		On("Lookup", mock.Anything, "81.2.69.142").
		Return(geolib.Location{IP: "81.2.69.142", ISOCode: "GB"}, nil).
		Once()

	suite.Do(req)

	rec := suite.Do(httptest.NewRequest("GET", "/stats", nil))

	suite.Equal(http.StatusOK, rec.Code)

	resp := struct {
		Results []usageStatsJSON `json:"results"`
	}{}

	suite.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Len(resp.Results, 1)
	suite.Equal(string(geolib.ServiceLegacy), resp.Results[0].Name)
	suite.EqualValues(1, resp.Results[0].SuccessCount)
}

func (suite *HTTPHandlerTestSuite) TestIncorrectDefaultLocation() {
	suite.conf.DefaultLocation = map[string]interface{}{"lat": "north"}

	_, err := geolib.NewHTTPHandler(suite.conf, nil, suite.loggerMock, 1)

	suite.Error(err)
}

func TestHTTPHandler(t *testing.T) {
	suite.Run(t, &HTTPHandlerTestSuite{})
}

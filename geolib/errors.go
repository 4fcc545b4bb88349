package geolib

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrUnsupportedService is returned if configured service has no
	// corresponding backend. This is the only error which is never
	// replaced with a default location.
	ErrUnsupportedService = errors.New("geoip service is not supported or set up")

	// ErrAddressNotFound is returned by backends if they understand a
	// given address but have no data about it.
	ErrAddressNotFound = errors.New("address is not found in a database")

	// ErrBackendUnavailable is returned by backends if a database
	// cannot be opened or web service cannot be reached.
	ErrBackendUnavailable = errors.New("backend is not available")

	// ErrContextIsClosed is returned for batch items which were not
	// resolved because a request has gone.
	ErrContextIsClosed = errors.New("context is closed")
)

type jsonHTTPError struct {
	Error struct {
		Message string `json:"message"`
		Context string `json:"context"`
	} `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()

	return json.Marshal(&value)
}

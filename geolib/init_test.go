package geolib_test

import (
	"context"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/mock"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) Name() string {
	return m.Called().String(0)
}

func (m *BackendMock) Lookup(ctx context.Context, ip string) (geolib.Location, error) {
	args := m.Called(ctx, ip)

	return args.Get(0).(geolib.Location), args.Error(1)
}

func (m *BackendMock) Recovers(err error) bool {
	return m.Called(err).Bool(0)
}

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

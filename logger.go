package main

import (
	"os"

	"github.com/9seconds/geolocator/geolib"
	"github.com/rs/zerolog"
)

type logger struct {
	lookupLog  zerolog.Logger
	resolveLog zerolog.Logger
	updateLog  zerolog.Logger
}

func (l *logger) LookupError(ip, name string, err error) {
	l.lookupLog.Error().Str("backend", name).Str("ip", ip).Err(err).Msg("")
}

func (l *logger) ResolveError(ip string, err error) {
	l.resolveLog.Error().Str("ip", ip).Err(err).Msg("")
}

func (l *logger) UpdateInfo(name, msg string) {
	l.updateLog.Info().Str("backend", name).Msg(msg)
}

func (l *logger) UpdateError(name string, err error) {
	l.updateLog.Error().Str("backend", name).Err(err).Msg("")
}

func newLogger() geolib.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	return &logger{
		lookupLog:  zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "lookup").Logger(),
		resolveLog: zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "resolve").Logger(),
		updateLog:  zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "update").Logger(),
	}
}

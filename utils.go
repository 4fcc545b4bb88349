package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/9seconds/geolocator/providers"
	"github.com/spf13/afero"
)

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

// makeBackends builds backends which have settings in config. Backends
// do nothing until first lookup so it is ok to build all of them.
// Updaters are returned for databases which have update_url.
func makeBackends(conf *config, logger geolib.Logger) ([]geolib.Backend, []geolib.DatabaseUpdater, []io.Closer) {
	fs := afero.NewOsFs()
	backends := []geolib.Backend{}
	updaters := []geolib.DatabaseUpdater{}
	closers := []io.Closer{}

	if conf.Maxmind.DatabasePath != "" {
		backend := providers.NewMaxmindDatabase(fs, conf.Maxmind.DatabasePath, logger)

		backends = append(backends, backend)
		closers = append(closers, backend)

		if conf.Maxmind.UpdateURL != "" {
			updaters = append(updaters, providers.NewMaxmindDatabaseUpdater(backend,
				makeHTTPClient(conf.Maxmind, DefaultUpdateTimeout),
				conf.Maxmind.UpdateURL,
				conf.Maxmind.GetUpdateEvery()))
		}
	}

	if conf.Maxmind.UserID != "" || conf.Maxmind.LicenseKey != "" {
		var backend geolib.Backend = providers.NewMaxmindWebService(conf.Maxmind.UserID,
			conf.Maxmind.LicenseKey,
			conf.Maxmind.GetHTTPTimeout(),
			conf.Maxmind.GetRateLimitInterval(),
			conf.Maxmind.GetRateLimitBurst(),
			logger)

		if size := conf.Maxmind.GetCacheSize(); size > 0 {
			backend = geolib.NewCachingBackend(backend, size, conf.Maxmind.GetCacheTTL())
		}

		backends = append(backends, backend)
	}

	if conf.Legacy.DatabasePath != "" {
		backends = append(backends, providers.NewLegacy(conf.Legacy.DatabasePath))
	}

	return backends, updaters, closers
}

func makeHTTPClient(conf configMaxmind, timeout time.Duration) geolib.HTTPClient {
	httpClient := &http.Client{
		Timeout: timeout,
	}

	return geolib.NewHTTPClient(httpClient,
		"geolocator/"+version,
		conf.GetRateLimitInterval(),
		conf.GetRateLimitBurst())
}

func closeAll(closers []io.Closer) {
	for _, v := range closers {
		v.Close() // nolint: errcheck
	}
}

func headerToEnvName(header string) string {
	return strings.ToUpper(strings.ReplaceAll(header, "-", "_"))
}

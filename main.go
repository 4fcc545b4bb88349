package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

var (
	app = kingpin.New(
		"geolocator",
		"Geolocation of clients by their IP addresses.")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("GEOLOCATOR_DEBUG").
		Bool()
	configPath = app.Flag("config", "Path to the config.").
			Short('c').
			Envar("GEOLOCATOR_CONFIG").
			Required().
			ExistingFile()

	serveCommand = app.Command("serve", "Run HTTP server.").Default()

	resolveCommand = app.Command("resolve", "Resolve given IP addresses and exit.")
	resolveIPs     = resolveCommand.Arg("ip", "IP addresses to resolve. "+
		"A local client address is used if nothing is given.").Strings()
	resolvePeer = resolveCommand.Flag("peer", "An address of the peer.").String()
)

func init() {
	app.Version(version)
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	conf, err := parseConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse config")
	}

	logger := newLogger()
	backends, updaters, closers := makeBackends(conf, logger)

	defer closeAll(closers)

	ctx, cancel := makeRootContext()
	defer cancel()

	switch command {
	case serveCommand.FullCommand():
		err = serve(ctx, conf, backends, updaters, logger)
	case resolveCommand.FullCommand():
		err = resolve(ctx, conf, backends)
	}

	if err != nil {
		closeAll(closers)
		log.Fatal().Err(err).Msg("")
	}
}

func serve(ctx context.Context,
	conf *config,
	backends []geolib.Backend,
	updaters []geolib.DatabaseUpdater,
	logger geolib.Logger) error {
	handler, err := geolib.NewHTTPHandler(conf.GetResolverConfig(), backends, logger, conf.GetWorkerPoolSize())
	if err != nil {
		return err
	}

	defer handler.Shutdown()

	for _, v := range updaters {
		updater := geolib.NewUpdater(ctx, v, logger)

		updater.Start()

		defer updater.Shutdown()
	}

	listener, err := net.Listen("tcp", conf.GetListen())
	if err != nil {
		return err
	}

	srv := http.Server{
		Handler: withBasicAuth(handler, conf.BasicAuth),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		srv.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	log.Debug().Str("listen", conf.GetListen()).Msg("start http server")

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func resolve(ctx context.Context, conf *config, backends []geolib.Backend) error {
	env := geolib.Environment{
		Headers:     map[string]string{},
		PeerAddress: *resolvePeer,
	}

	for _, v := range geolib.ClientAddressHeaders {
		if value := os.Getenv("HTTP_" + headerToEnvName(v)); value != "" {
			env.Headers[v] = value
		}
	}

	resolver, err := geolib.NewGeoResolver(conf.GetResolverConfig(), env, backends)
	if err != nil {
		return err
	}

	results := []geolib.Location{}

	if len(*resolveIPs) == 0 {
		location, err := resolver.Location(ctx)
		if err != nil {
			return err
		}

		results = append(results, location)
	}

	for _, ip := range *resolveIPs {
		location, err := resolver.LocationOf(ctx, ip)
		if err != nil {
			return err
		}

		results = append(results, location)
	}

	encoder := json.NewEncoder(os.Stdout)

	encoder.SetIndent("", "  ")

	return encoder.Encode(results)
}

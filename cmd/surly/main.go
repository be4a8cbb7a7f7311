package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/surly-sh/surly/apikeys"
	"github.com/surly-sh/surly/datastore"
	"github.com/surly-sh/surly/shortcode"
	"github.com/surly-sh/surly/storage"
	"github.com/surly-sh/surly/userconfig"
	"github.com/surly-sh/surly/web"
)

func main() {
	// Log with filename and line number. This writes to stderr, so it should
	// be thread safe.
	log.Logger = log.With().Caller().Logger()

	configPath := flag.String(
		"config",
		"./config.yaml",
		"path to a JSON or YAML file containing your configuration",
	)
	level := flag.String(
		"level",
		"info",
		`log level: "info", "debug", or "warn"`,
	)
	flag.Parse()

	switch *level {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	log.Info().
		Str("configPath", *configPath).
		Msg("starting the application")

	f, err := os.Open(*configPath)

	if err != nil {
		log.Error().
			Str("config-path", *configPath).
			Err(err).
			Msg("We can't open the application config file")
		os.Exit(1)
	}

	config, err := userconfig.Parse(f)
	f.Close()

	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem parsing your config")
		os.Exit(1)
	}

	checked, err := config.CheckAndSetDefaults()
	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem validating your config")
		os.Exit(1)
	}

	log.Info().Str("configPath", *configPath).Msg("successfully validated the config")

	var kv storage.KeyValue
	if checked.Storage.InMemory {
		log.Warn().Msg("using the in-memory store; nothing will survive a restart")
		kv = storage.NewMemoryKV()
	} else {
		kv, err = storage.NewBadgerKV(&storage.KVConfig{
			StorageDirPath: checked.Storage.DirPath,
		})
		if err != nil {
			log.Error().
				Err(err).
				Msg("We can't open the storage directory")
			os.Exit(1)
		}
	}

	cacheFactory := datastore.Unbounded
	if checked.Cache.MaxEntries > 0 {
		cacheFactory = datastore.Bounded(checked.Cache.MaxEntries)
	}

	ds, err := datastore.New(kv, datastore.Config{
		TablePrefix: checked.Storage.TablePrefix,
		NewCache:    cacheFactory,
	})
	if err != nil {
		log.Error().
			Err(err).
			Msg("We can't set up the service's tables")
		os.Exit(1)
	}

	// Leave a trail of service starts for operators poking at the store.
	boot, err := json.Marshal(map[string]interface{}{
		"last_started": time.Now().Unix(),
	})
	if err == nil {
		err = ds.Config.Write("service", boot)
	}
	if err != nil {
		log.Error().
			Err(err).
			Msg("We can't record the boot entry")
		os.Exit(1)
	}

	handler := &web.Handler{
		Shortcodes:        shortcode.NewManager(ds.Shortcodes),
		Keys:              apikeys.NewManager(ds.APIKeys),
		DefaultCodeLength: checked.Shortcodes.DefaultLength,
	}

	srv := &http.Server{
		Addr:    checked.HTTP.ListenAddress,
		Handler: web.NewRouter(handler),
	}

	// Intercept interrupts so we can get more visibility into them.
	// One goroutine listens exclusively for interrupts so the server can
	// drain before the store is closed.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func(c chan os.Signal) {
		<-c
		log.Info().Msg("interrupt: shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("problem draining the HTTP server")
		}
	}(sigCh)

	log.Info().
		Str("address", checked.HTTP.ListenAddress).
		Msg("serving HTTP")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("the HTTP server failed")
	}

	if err := kv.Close(); err != nil {
		log.Error().Err(err).Msg("problem closing the store")
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/classify/gemini"
	"github.com/ecosnap/ecosnap-server/classify/openrouter"
	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/identity/hosted"
	"github.com/ecosnap/ecosnap-server/identity/selfhosted"
	"github.com/ecosnap/ecosnap-server/internal/config"
	"github.com/ecosnap/ecosnap-server/internal/logging"
	"github.com/ecosnap/ecosnap-server/scans"
	"github.com/ecosnap/ecosnap-server/scans/pgrepo"
	"github.com/ecosnap/ecosnap-server/scans/scansfakes"
	"github.com/ecosnap/ecosnap-server/server"
)

func main() {
	for {
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
			os.Exit(1)
		} else {
			break
		}
	}
}

func run() (returnError error) {
	c := config.New()
	log := logging.New(c.GetEnv())

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	provider, err := buildProvider(c, log)
	if err != nil {
		return errors.Wrap(err, "identity provider")
	}

	engine, err := buildEngine(c, log)
	if err != nil {
		return errors.Wrap(err, "classification engine")
	}

	repo, cleanup, err := buildScanRepo(c, log)
	if err != nil {
		return errors.Wrap(err, "scan store")
	}
	defer cleanup()

	srv, err := server.New(c, provider, engine, repo, log)
	if err != nil {
		return errors.Wrap(err, "server")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer, log)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	log.Info().Msg("server stopped")
	return returnError
}

func buildProvider(c config.Config, log zerolog.Logger) (identity.Provider, error) {
	if c.GetIdentityURL() != "" {
		return hosted.New(c, log)
	}
	log.Info().Msg("IDENTITY_URL not set, using the self-hosted identity provider")
	return selfhosted.New(c, log)
}

func buildEngine(c config.Config, log zerolog.Logger) (classify.Engine, error) {
	if c.GetModelEngine() == "gemini" {
		return gemini.New(context.Background(), c, log)
	}
	return openrouter.New(c, log)
}

func buildScanRepo(c config.Config, log zerolog.Logger) (scans.Repository, func(), error) {
	if url := c.GetDatabaseURL(); url != "" {
		repo, err := pgrepo.New(context.Background(), url)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
	log.Info().Msg("DATABASE_URL not set, scan history is in-memory")
	return scansfakes.NewFakeRepository(), func() {}, nil
}

func listenAndServe(server *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// import http profilling when the server profilling configuration is set
	_ "net/http/pprof"

	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/actions"
	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/crons"
	"github.com/dawita19/earnmax-sub001/data/events"
	"github.com/dawita19/earnmax-sub001/monitor"
	"github.com/dawita19/earnmax-sub001/queries"
	"github.com/dawita19/earnmax-sub001/service"
)

// Server interface
type Server interface {
	Listen()
}

type server struct {
	config  config.Config
	actions *actions.Actions
	service *service.Service
	repo    *queries.Repo
	events  *events.Publisher
	ctx     context.Context
	close   context.CancelFunc
	HTTP    *http.Server
}

// NewServer constructor
func NewServer(cfg config.Config) Server {
	ctx, close := context.WithCancel(context.Background())

	repo, err := queries.NewRepo(cfg.DatabaseCluster)
	if err != nil {
		log.Fatal().Str("section", "server").Err(err).Msg("Unable to connect to the database cluster")
	}

	publisher := events.NewPublisher(cfg.Audit)

	srv, err := service.NewService(ctx, cfg, repo, publisher)
	if err != nil {
		log.Fatal().Str("section", "server").Err(err).Msg("Unable to init services")
	}

	userActions := actions.NewActions(cfg, srv, ctx)

	return &server{
		config:  cfg,
		repo:    repo,
		events:  publisher,
		service: srv,
		actions: userActions,
		ctx:     ctx,
		close:   close,
	}
}

// Listen for incoming requests and process them
func (srv *server) Listen() {
	crons.Start(srv.config.Crons, srv.service)

	go srv.ListenToRequests()
	go monitor.LoopProfilingServer(srv.config.Server.Monitoring)

	srv.stopOnSignal()
}

func (srv *server) stopOnSignal() {
	// listen for termination signals
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("signal", sig.String()).Msg("Shutting down services")
	srv.closeApp(5 * time.Second)
}

func (srv *server) closeApp(timeout time.Duration) {
	// define a timeout in which the graceful shutdown procedure should happen before forcing the shutdown
	timeoutFunc := time.AfterFunc(timeout, func() {
		log.Printf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
		os.Exit(0)
	})
	defer timeoutFunc.Stop()

	monitor.ShutdownServer()
	if srv.HTTP != nil {
		if err := srv.HTTP.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to shutdown HTTP server")
		}
	}

	// close crons
	crons.Close()
	srv.events.Close()
	srv.close()

	// make sure database connection is closed on program exit
	srv.repo.Close()

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("state", "complete").Msg("All workers terminated")
}

package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/actions"
	"github.com/dawita19/earnmax-sub001/logger"
)

func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "X-User-Id", "X-Admin-Id"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "OPTIONS"}

	r.Use(cors.New(corsConfig)) // Allow requests from anywhere
	r.Use(gin.Recovery())       // Recovery middleware recovers from any panics and writes a 500 if there was one.

	r.Use(logger.SetLogger())

	r.GET("/ping", actions.Ping)

	// handle authentication requests
	auth := r.Group("/auth")
	{
		auth.POST("/register", a.Register)
	}

	// financial requests
	requests := r.Group("/requests")
	{
		requests.POST("", a.CreateRequest)
		requests.GET("", a.GetUserRequests)
		requests.GET("/:request_id", a.GetRequest)
		requests.DELETE("/:request_id", a.CancelRequest)
		requests.POST("/:request_id/settle", a.Settle)
	}

	// admin review queue
	admin := r.Group("/admin")
	{
		admin.GET("/queue", a.GetAdminQueue)
		admin.PUT("/active", a.SetAdminActive)
	}

	// daily tasks
	tasks := r.Group("/tasks")
	{
		tasks.GET("", a.GetUserTasks)
		tasks.POST("/:task_id/claim", a.ClaimTask)
	}

	// referrals
	referrals := r.Group("/referrals")
	{
		referrals.GET("/stats", a.GetReferralStats)
	}

	srv.HTTP = &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: r,
	}
	srv.HTTP.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)

	if err := srv.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Str("section", "server").Msg("Unable to start HTTP server")
	}
}

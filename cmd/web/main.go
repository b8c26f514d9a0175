package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"expenseweb/internal/api"
	"expenseweb/internal/config"
	"expenseweb/internal/handler"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	client := api.New(cfg.APIBaseURL, cfg.APITimeout)
	sessions := session.NewStore([]byte(cfg.SessionSecret), cfg.CacheTTL, cfg.Release())

	sessionService := service.NewSessionService(client)
	requestService := service.NewRequestService(client)
	inboxService := service.NewInboxService(client)

	router := gin.Default()
	router.SetFuncMap(handler.TemplateFuncs())
	router.LoadHTMLGlob("web/templates/*.tmpl")

	// Every page gets a browser session, login page included.
	router.Use(middleware.Attach(sessions))

	open := router.Group("")
	handler.NewHealthHandler(sessionService).RegisterRoutes(open)
	handler.NewAuthHandler(sessionService).RegisterRoutes(open)

	guarded := router.Group("", middleware.RequireUser(sessionService))
	handler.NewRequestHandler(sessionService, requestService).RegisterRoutes(guarded)
	handler.NewInboxHandler(sessionService, inboxService).RegisterRoutes(guarded)

	log.Info().Str("port", cfg.Port).Str("api", cfg.APIBaseURL).Msg("frontend listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/storybooks/internal/auth/http"
	authmiddleware "github.com/AlibekovAA/storybooks/internal/auth/middleware"
	"github.com/AlibekovAA/storybooks/internal/auth/oauth"
	authservice "github.com/AlibekovAA/storybooks/internal/auth/service"
	"github.com/AlibekovAA/storybooks/internal/auth/session"
	"github.com/AlibekovAA/storybooks/internal/common/bootstrap"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/storybooks/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	srv "github.com/AlibekovAA/storybooks/internal/common/server"
	"github.com/AlibekovAA/storybooks/internal/story/feed"
	storyhttp "github.com/AlibekovAA/storybooks/internal/story/http"
	storyservice "github.com/AlibekovAA/storybooks/internal/story/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.NewStoriesApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start stories service: %v\n", err)
		os.Exit(1)
	}
	log := app.Log
	cfg := app.Config

	clk := clock.NewRealClock()
	idGenerator := commoncrypto.NewUUIDGenerator()

	hub := feed.NewHub(log)
	hub.Start(ctx)

	storyService := storyservice.NewStoryService(app.StoryRepo, idGenerator, clk, hub, log)
	tokenIssuer := authservice.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, clk)
	authService := authservice.NewAuthService(app.UserRepo, idGenerator, clk, tokenIssuer, log)

	sessions, err := session.NewStore(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SessionSecureCookies)
	if err != nil {
		log.Fatalf("failed to initialize sessions: %v", err)
	}

	var provider oauth.Provider
	if cfg.GoogleLoginEnabled() {
		provider = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Warn("google login disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	mux := http.NewServeMux()
	storyhttp.NewHandler(storyService, log).Register(mux)
	authhttp.NewHandler(authService, sessions, provider, idGenerator, log).Register(mux)
	feed.NewHandler(hub, cfg.FeedSendBufSize, log).Register(mux)
	mux.HandleFunc("GET /health", commonhttp.HealthHandler(log, app.Health))
	mux.Handle("GET /metrics", promhttp.Handler())

	resolver := authmiddleware.Resolver(sessions, authService, log)
	baseHandler := commonhttp.BuildBaseHandler("stories", log, resolver(mux), commonhttp.BaseOptions{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
	})

	server := srv.NewServer(srv.DefaultServerConfig(cfg.HTTPPort), baseHandler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("stories service: closing feed subscribers")
			return hub.Shutdown(ctx)
		},
		app.Close,
	}

	if err := srv.Run(ctx, server, log, "stories", shutdownHooks); err != nil {
		log.Errorf("stories service exited with error: %v", err)
		os.Exit(1)
	}
}

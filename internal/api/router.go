package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/api/handlers"
	"github.com/rsumit123/willow-leather-api/internal/api/middleware"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
)

// SetupRoutes wires every endpoint onto the router. Auth endpoints are
// public; everything under /careers requires a session token.
func SetupRoutes(router *gin.Engine, db *database.DB, cfg *config.Config, log *logrus.Logger,
	locks *services.CareerLocks, cache *services.CacheService, sessions *services.MatchSessionManager) {

	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(db, cfg)
	careerHandler := handlers.NewCareerHandler(db, cfg, log)
	auctionHandler := handlers.NewAuctionHandler(db, cfg, log, locks, cache)
	seasonHandler := handlers.NewSeasonHandler(db, cfg, log, locks, cache, sessions)
	matchHandler := handlers.NewMatchHandler(db, cfg, log, locks, cache, sessions)
	xiHandler := handlers.NewPlayingXIHandler(db, cfg, log, locks)

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	auth := v1.Group("/auth")
	{
		auth.POST("/google", authHandler.GoogleLogin)
		auth.GET("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)
	}

	authed := v1.Group("")
	authed.Use(middleware.AuthRequired(cfg.JWTSecret))

	authed.GET("/teams/choices", careerHandler.TeamChoices)

	careers := authed.Group("/careers")
	{
		careers.POST("", careerHandler.CreateCareer)
		careers.GET("", careerHandler.ListCareers)
		careers.GET("/:careerId", careerHandler.GetCareer)
		careers.DELETE("/:careerId", careerHandler.DeleteCareer)
		careers.GET("/:careerId/teams", careerHandler.ListTeams)
		careers.GET("/:careerId/teams/:teamId/squad", careerHandler.GetSquad)

		auction := careers.Group("/:careerId/auction")
		{
			auction.POST("/start", auctionHandler.StartAuction)
			auction.GET("/state", auctionHandler.GetState)
			auction.POST("/next-player", auctionHandler.NextPlayer)
			auction.POST("/bid", auctionHandler.PlaceBid)
			auction.POST("/simulate-round", auctionHandler.SimulateBiddingRound)
			auction.POST("/finalize", auctionHandler.FinalizePlayer)
			auction.POST("/quick-pass", auctionHandler.QuickPass)
			auction.POST("/skip-category", auctionHandler.SkipCategory)
			auction.POST("/auto-bid", auctionHandler.AutoBid)
			auction.POST("/auto-complete", auctionHandler.AutoComplete)
			auction.GET("/team-states", auctionHandler.TeamStates)
		}

		season := careers.Group("/:careerId/season")
		{
			season.POST("/fixtures/generate", seasonHandler.GenerateFixtures)
			season.GET("/fixtures", seasonHandler.ListFixtures)
			season.GET("/fixtures/next", seasonHandler.NextFixture)
			season.GET("/standings", seasonHandler.GetStandings)
			season.POST("/fixtures/:fixtureId/simulate", seasonHandler.SimulateFixture)
			season.POST("/simulate-league", seasonHandler.SimulateRemainingLeague)
			season.POST("/playoffs/next", seasonHandler.GeneratePlayoffs)
			season.POST("/complete", seasonHandler.CompleteSeason)
			season.GET("/leaderboards", seasonHandler.Leaderboards)
		}

		match := careers.Group("/:careerId/matches/:fixtureId")
		{
			match.POST("/toss", matchHandler.DoToss)
			match.POST("/start", matchHandler.StartMatch)
			match.GET("/state", matchHandler.GetState)
			match.POST("/ball", matchHandler.PlayBall)
			match.POST("/simulate-over", matchHandler.SimulateOver)
			match.POST("/simulate-innings", matchHandler.SimulateInnings)
			match.GET("/bowlers", matchHandler.AvailableBowlers)
			match.POST("/bowlers", matchHandler.SelectBowler)
			match.GET("/scorecard", matchHandler.LiveScorecard)
			match.POST("/result", matchHandler.MatchResult)
			match.POST("/abandon", matchHandler.AbandonMatch)
		}

		xi := careers.Group("/:careerId/playing-xi")
		{
			xi.GET("", xiHandler.GetPlayingXI)
			xi.PUT("", xiHandler.SetPlayingXI)
			xi.POST("/validate", xiHandler.ValidateXI)
		}
	}
}

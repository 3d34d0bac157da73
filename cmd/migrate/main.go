package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/generators"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Career{},
		&models.Team{},
		&models.Player{},
		&models.Season{},
		&models.Fixture{},
		&models.TeamSeasonStats{},
		&models.PlayerSeasonStats{},
		&models.Auction{},
		&models.AuctionPlayerEntry{},
		&models.AuctionBid{},
		&models.TeamAuctionState{},
		&models.Match{},
		&models.Innings{},
		&models.BallEvent{},
		&models.PlayingXI{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_players_career_team ON players(career_id, team_id)",
		"CREATE INDEX IF NOT EXISTS idx_players_role ON players(role)",
		"CREATE INDEX IF NOT EXISTS idx_fixtures_season_status ON fixtures(season_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_auction_entries_auction_status ON auction_player_entries(auction_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_ball_events_innings ON ball_events(innings_id)",
		"CREATE INDEX IF NOT EXISTS idx_player_stats_season_runs ON player_season_stats(season_id, runs DESC)",
		"CREATE INDEX IF NOT EXISTS idx_player_stats_season_wickets ON player_season_stats(season_id, wickets DESC)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Reverse dependency order
	tables := []string{
		"playing_xi",
		"ball_events",
		"innings",
		"matches",
		"team_auction_states",
		"auction_bids",
		"auction_player_entries",
		"auctions",
		"player_season_stats",
		"team_season_stats",
		"fixtures",
		"seasons",
		"players",
		"teams",
		"careers",
		"users",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// seedData creates a development user with a ready-to-play career.
func seedData(db *database.DB) error {
	user := models.User{
		GoogleID: "dev-google-id",
		Email:    "dev@willowleather.local",
		Name:     "Dev User",
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	career := models.Career{
		UserID: user.ID,
		Name:   "Dev Career",
		Status: models.CareerPreAuction,
	}
	if err := db.Create(&career).Error; err != nil {
		return fmt.Errorf("failed to create career: %w", err)
	}

	teams := generators.CreateTeams(career.ID, 0)
	for i := range teams {
		if err := db.Create(&teams[i]).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if teams[i].IsUserTeam {
			career.UserTeamID = &teams[i].ID
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pool := generators.NewPlayerGenerator(rng).GeneratePool(career.ID)
	for _, p := range pool {
		if err := db.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create player: %w", err)
		}
	}

	season := models.Season{
		CareerID:     career.ID,
		SeasonNumber: 1,
		Phase:        models.SeasonNotStarted,
	}
	if err := db.Create(&season).Error; err != nil {
		return fmt.Errorf("failed to create season: %w", err)
	}

	auction := models.Auction{
		SeasonID:     season.ID,
		Status:       models.AuctionNotStarted,
		SalaryCap:    900000000,
		MinSquadSize: 18,
		MaxSquadSize: 25,
		MaxOverseas:  8,
	}
	if err := db.Create(&auction).Error; err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	if err := db.Save(&career).Error; err != nil {
		return fmt.Errorf("failed to update career: %w", err)
	}

	logrus.Infof("Seeded career %d with %d players for %s", career.ID, len(pool), user.Email)
	return nil
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pitchlab-hq/pitch_api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, achievements, challenges")
		dbPath   = flag.String("db", "", "SQLite database path (overrides DB_DATABASE env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := connect(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete catalog seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "achievements":
		log.Println("Seeding achievements only...")
		if err := mainSeeder.SeedAchievementsOnly(); err != nil {
			log.Fatalf("Failed to seed achievements: %v", err)
		}
	case "challenges":
		log.Println("Seeding challenges only...")
		if err := mainSeeder.SeedChallengesOnly(); err != nil {
			log.Fatalf("Failed to seed challenges: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'achievements', or 'challenges'", *seedType)
	}
}

// connect opens the same database the API uses, selected by DB_DRIVER.
func connect(sqlitePath string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	if os.Getenv("DB_DRIVER") == "sqlite" || sqlitePath != "" {
		path := sqlitePath
		if path == "" {
			path = os.Getenv("DB_DATABASE")
			if path == "" {
				path = "pitch_api.db"
			}
		}
		log.Printf("Connecting to sqlite database: %s", path)
		return gorm.Open(sqlite.Open(path), config)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "pitch_api"),
		envOr("DB_PORT", "5432"),
		envOr("DB_SSLMODE", "disable"),
	)
	log.Println("Connecting to postgres database")
	return gorm.Open(postgres.Open(dsn), config)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func showHelp() {
	fmt.Println(`Catalog seeder

Usage:
  seed [flags]

Flags:
  -type string   Type of seeding: all, achievements, challenges (default "all")
  -db string     SQLite database path (overrides DB_DATABASE env var)
  -help          Show this help message

The seeder is idempotent: catalog entries that already exist are skipped.`)
}

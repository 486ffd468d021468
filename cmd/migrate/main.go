package main

import (
	"fmt"
	"log"
	"os"

	"bloom-portal/internal/config"
	"bloom-portal/internal/database"
	"bloom-portal/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go [up|down|status]")
		os.Exit(1)
	}

	command := os.Args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if db == nil {
		fmt.Println("Database is disabled (database.enabled=false); activity is kept in memory")
		return
	}
	defer db.Close()

	migrator := database.NewMigrator(db)

	switch command {
	case "up":
		fmt.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations completed successfully")

	case "down":
		fmt.Println("Rolling back migrations...")
		if err := migrator.Down(); err != nil {
			log.Fatalf("Failed to rollback migrations: %v", err)
		}
		fmt.Println("Migrations rolled back successfully")

	case "status":
		if !db.Migrator().HasTable(&models.Activity{}) {
			fmt.Println("Activity table not found - run 'up' first")
			return
		}

		var count int64
		if err := db.Model(&models.Activity{}).Count(&count).Error; err != nil {
			log.Fatalf("Failed to count activity: %v", err)
		}
		fmt.Printf("Activity table present with %d entries\n", count)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Available commands: up, down, status")
		os.Exit(1)
	}
}

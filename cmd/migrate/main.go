package main

import (
	"log"
	"os"

	"ai-tutoring-be/internal/model"
	"ai-tutoring-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting GORM Migration")

	// Extensions first; gen_random_uuid() needs pgcrypto.
	color.Yellow("Step 1: Setting up extensions")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	color.Yellow("Step 2: Running AutoMigrate")
	models := []interface{}{
		&model.ChatSession{},
		&model.ChatMessage{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// Composite index for per-session chronological reads.
	color.Yellow("Step 3: Ensuring composite indexes")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_session_created ON chat_messages (chat_session_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_updated ON chat_sessions (user_id, updated_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Migration completed")
}

package main

import (
	"context"
	"log"

	"ai-tutoring-be/internal/bootstrap"
	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/server"
	"ai-tutoring-be/internal/tracer"
	"ai-tutoring-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}

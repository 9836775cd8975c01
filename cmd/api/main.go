package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"scotustician-pipeline/client"
	"scotustician-pipeline/config"
	"scotustician-pipeline/handlers"
	"scotustician-pipeline/storage"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadAPI()

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	corpus := storage.NewCorpusStore(store)

	api := client.NewOyez(client.New(client.DefaultConfig()))
	handler := handlers.NewCorpusHandler(api, corpus)

	r := gin.Default()
	r.GET("/health", handler.Health)
	r.GET("/cases/:term", handler.CasesByTerm)
	r.GET("/cases/:term/:docket", handler.CaseByDocket)
	r.GET("/case-summary", handler.CaseSummary)
	r.POST("/sync/case-summary", handler.SyncCaseSummary)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

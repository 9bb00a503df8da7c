package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"pointeval/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	if err := application.Run(os.Args[1:]); err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
}

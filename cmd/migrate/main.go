package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"pointeval/internal/store/sqlite"
)

// migrate creates or upgrades the results database schema and prints its
// current contents, so the reporting tool can be pointed at a fresh file
// before the first evaluation run.
func main() {
	dbPath := flag.String("db", "results.db", "Results database path")
	flag.Parse()

	fmt.Printf("Migrating results database %s\n", *dbPath)

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var runs, results int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		log.Fatalf("Failed to count runs: %v", err)
	}
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM image_results`).Scan(&results); err != nil {
		log.Fatalf("Failed to count image results: %v", err)
	}

	fmt.Println("Schema is up to date")
	fmt.Printf("   Runs:          %d\n", runs)
	fmt.Printf("   Image results: %d\n", results)
}

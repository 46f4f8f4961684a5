package main

import (
	"flag"
	"log"
	"os"

	"crc32-rainbow/internal/api"
	"crc32-rainbow/internal/config"
)

const dropTables = `
	DROP INDEX IF EXISTS idx_cracks_created_at;
	DROP TABLE IF EXISTS cracks;
`

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfig), "Path to the configuration file")
	reset := flag.Bool("reset", false, "Drop existing crack history before creating the schema")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	dbPath := cfg.Server.DBPath

	log.Printf("Setting up database at: %s\n", dbPath)

	db, err := api.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Drop existing tables
	if *reset {
		log.Println("Dropping existing tables...")
		if _, err := db.Exec(dropTables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	// Create tables
	log.Println("Creating tables...")
	if err := api.CreateSchema(db); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("Database setup completed successfully!")
}

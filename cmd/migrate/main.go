package main

import (
	"log"
	"os"

	"dataset-discovery-be/internal/constant"
	"dataset-discovery-be/internal/model"
	"dataset-discovery-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions GORM AutoMigrate doesn't handle
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Dataset{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Verify the migrated vector columns carry the dimension the
	// providers emit. pgvector stores the declared size in the column
	// typmod; a mismatch here means every embedding write would fail.
	log.Println("Step 3: Verifying vector dimensions...")

	for _, column := range []string{"schema_embedding", "query_embedding"} {
		var dims int
		row := db.Raw(
			`SELECT atttypmod FROM pg_attribute WHERE attrelid = 'datasets'::regclass AND attname = ?`,
			column,
		).Row()
		if err := row.Scan(&dims); err != nil {
			log.Printf("Warn: Failed to inspect %s dimension: %v", column, err)
			continue
		}
		if dims != constant.EmbeddingDimension {
			log.Fatalf("Error: %s is vector(%d) but the providers emit vector(%d); drop the column and re-migrate, then re-embed", column, dims, constant.EmbeddingDimension)
		}
	}

	// 6. Post-Migration: approximate nearest-neighbor indexes. HNSW over
	// cosine distance matches the similarity queries the engine issues.
	log.Println("Step 4: Creating vector indexes...")

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_datasets_schema_embedding
		 ON datasets USING hnsw (schema_embedding vector_cosine_ops);`,

		`CREATE INDEX IF NOT EXISTS idx_datasets_query_embedding
		 ON datasets USING hnsw (query_embedding vector_cosine_ops);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"dataset-discovery-be/internal/config"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/internal/repository/implementation"
	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/pkg/database"
	"dataset-discovery-be/pkg/embedding"
	"dataset-discovery-be/pkg/llm/factory"

	"github.com/fatih/color"
)

// corpusRecord is one entry of the mock data.gov-style corpus dump.
// Schema text, previous queries, and granularity are usually absent and
// get inferred before embedding.
type corpusRecord struct {
	TableName             string          `json:"table_name"`
	TableDescription      string          `json:"table_description"`
	ExampleRecords        json.RawMessage `json:"example_records"`
	Tags                  []string        `json:"tags"`
	Popularity            int             `json:"popularity"`
	TableSchema           string          `json:"table_schema,omitempty"`
	PreviousQueries       []string        `json:"previous_queries,omitempty"`
	TemporalGranularity   []string        `json:"temporal_granularity,omitempty"`
	GeographicGranularity []string        `json:"geographic_granularity,omitempty"`
	ColumnCount           int             `json:"column_count,omitempty"`
}

func main() {
	cfg := config.Load()

	corpusPath := "mock_data/data_gov_mock_data.json"
	if len(os.Args) > 1 {
		corpusPath = os.Args[1]
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	datasetRepo := implementation.NewDatasetRepository(db)

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("Error: Failed to initialize LLM provider: %v", err)
	}
	inferrer := &metadataInferrer{llmProvider: llmProvider}

	raw, err := os.ReadFile(corpusPath)
	if err != nil {
		log.Fatalf("Error: Failed to read corpus file %s: %v", corpusPath, err)
	}

	var records []corpusRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Fatalf("Error: Failed to parse corpus file: %v", err)
	}

	color.Cyan("Seeding %d datasets from %s", len(records), corpusPath)

	succeeded, failed := 0, 0
	for i, record := range records {
		color.White("[%d/%d] %s", i+1, len(records), record.TableName)
		if err := seedOne(datasetRepo, embeddingProvider, inferrer, cfg, record); err != nil {
			color.Red("  failed: %v", err)
			failed++
			continue
		}
		color.Green("  done")
		succeeded++
	}

	color.Cyan("Seeding completed: %d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func seedOne(
	repo contract.DatasetRepository,
	embeddingProvider embedding.EmbeddingProvider,
	inferrer *metadataInferrer,
	cfg *config.Config,
	record corpusRecord,
) error {
	llmCtx, cancelLLM := context.WithTimeout(context.Background(), time.Duration(cfg.Ai.LLMTimeoutSeconds)*time.Second)
	defer cancelLLM()

	// Infer what the dump doesn't carry
	if record.TableSchema == "" {
		schemaText, err := inferrer.InferTableSchema(llmCtx, record.TableName, record.TableDescription, record.ExampleRecords)
		if err != nil {
			return fmt.Errorf("schema inference: %w", err)
		}
		record.TableSchema = schemaText
	}

	if len(record.PreviousQueries) == 0 {
		queries, err := inferrer.InferPreviousQueries(llmCtx, record.TableName, record.TableDescription, record.ExampleRecords)
		if err != nil {
			return fmt.Errorf("query inference: %w", err)
		}
		record.PreviousQueries = queries
	}

	if len(record.TemporalGranularity) == 0 && len(record.GeographicGranularity) == 0 {
		granularity, err := inferrer.InferGranularity(llmCtx, record.TableName, record.TableDescription, record.ExampleRecords)
		if err != nil {
			return fmt.Errorf("granularity inference: %w", err)
		}
		record.TemporalGranularity = lowercaseAll(granularity.TimeGranu)
		record.GeographicGranularity = lowercaseAll(granularity.GeoGranu)
	}

	if record.ColumnCount == 0 {
		record.ColumnCount = countColumns(record.ExampleRecords)
	}

	dataset := &entity.Dataset{
		Name:                  record.TableName,
		Description:           record.TableDescription,
		SchemaText:            record.TableSchema,
		Tags:                  record.Tags,
		ColumnCount:           record.ColumnCount,
		Popularity:            record.Popularity,
		TemporalGranularity:   record.TemporalGranularity,
		GeographicGranularity: record.GeographicGranularity,
		ExampleRecords:        record.ExampleRecords,
		PreviousQueries:       record.PreviousQueries,
	}

	storageCtx, cancelStorage := context.WithTimeout(context.Background(), time.Duration(cfg.Ai.StorageTimeoutSeconds)*time.Second)
	defer cancelStorage()

	existing, err := repo.FindOne(storageCtx, specification.ByNames{Names: []string{dataset.Name}})
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if existing == nil {
		err = repo.Create(storageCtx, dataset)
	} else {
		err = repo.Update(storageCtx, dataset)
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	embedCtx, cancelEmbed := context.WithTimeout(context.Background(), time.Duration(cfg.Ai.EmbedTimeoutSeconds)*time.Second)
	defer cancelEmbed()

	schemaDoc := fmt.Sprintf("Dataset: %s\n%s\n\n%s\n\nTags: %s",
		dataset.Name, dataset.Description, dataset.SchemaText, strings.Join(dataset.Tags, ", "))
	schemaRes, err := embeddingProvider.Generate(embedCtx, schemaDoc, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return fmt.Errorf("schema embedding: %w", err)
	}

	queryRes, err := embeddingProvider.Generate(embedCtx, strings.Join(dataset.PreviousQueries, "\n"), "RETRIEVAL_DOCUMENT")
	if err != nil {
		return fmt.Errorf("query embedding: %w", err)
	}

	return repo.UpdateEmbeddings(storageCtx, dataset.Name, schemaRes.Embedding.Values, queryRes.Embedding.Values)
}

// countColumns counts the keys of the first example record.
func countColumns(exampleRecords json.RawMessage) int {
	var rows []map[string]interface{}
	if err := json.Unmarshal(exampleRecords, &rows); err != nil || len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

func lowercaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

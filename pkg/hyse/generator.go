// Package hyse implements hypothetical schema embedding retrieval: a
// natural-language analytical task is turned into one or more synthetic
// table schemas, each schema is embedded, and similarity scores across the
// schema variants are aggregated into a single ranking over the corpus.
package hyse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dataset-discovery-be/pkg/llm"
)

// ErrExternalService marks generation or embedding failures. Fatal for the
// turn that triggered them.
var ErrExternalService = errors.New("external service failure")

// HypotheticalSchema is one synthetic table design for a task. The
// rendered schema, not the raw task text, is the unit of embedding.
type HypotheticalSchema struct {
	TableName   string   `json:"table_name"`
	ColumnNames []string `json:"column_names"`
	ColumnTypes []string `json:"column_types"`
	ExampleRow  []string `json:"example_row"`
}

// Render produces the canonical text block that gets embedded.
func (h HypotheticalSchema) Render() string {
	var b strings.Builder
	b.WriteString("Table: ")
	b.WriteString(h.TableName)
	b.WriteString("\nColumns:")
	for i, name := range h.ColumnNames {
		colType := ""
		if i < len(h.ColumnTypes) {
			colType = h.ColumnTypes[i]
		}
		b.WriteString(fmt.Sprintf("\n  %s %s", name, colType))
	}
	if len(h.ExampleRow) > 0 {
		b.WriteString("\nExample row: ")
		b.WriteString(strings.Join(h.ExampleRow, ", "))
	}
	return b.String()
}

// SchemaGenerator produces hypothetical schemas for a task.
type SchemaGenerator interface {
	Generate(ctx context.Context, task string, n int) ([]HypotheticalSchema, error)
}

// LLMGenerator implements SchemaGenerator on a generic LLM provider.
type LLMGenerator struct {
	llmProvider llm.LLMProvider
}

var _ SchemaGenerator = &LLMGenerator{}

func NewLLMGenerator(llmProvider llm.LLMProvider) *LLMGenerator {
	return &LLMGenerator{llmProvider: llmProvider}
}

func (g *LLMGenerator) Generate(ctx context.Context, task string, n int) ([]HypotheticalSchema, error) {
	if n <= 0 {
		n = 1
	}

	prompt := buildSchemaPrompt(task, n)

	response, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("%w: schema generation: %v", ErrExternalService, err)
	}

	schemas, err := parseSchemas(response)
	if err != nil {
		return nil, fmt.Errorf("%w: schema generation: %v", ErrExternalService, err)
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("%w: schema generation returned no schemas", ErrExternalService)
	}
	if len(schemas) > n {
		schemas = schemas[:n]
	}
	return schemas, nil
}

func buildSchemaPrompt(task string, n int) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an assistant skilled in generating database schemas.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString(fmt.Sprintf("Given the objective of %q, generate %d hypothetical table schema(s) that would support this task.\n", task, n))
	prompt.WriteString("Each schema needs a table name, column names, column types, and one plausible example row.\n")
	prompt.WriteString("Exclude any introductory phrases; focus exclusively on the task itself.\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString(`{"schemas": [{"table_name": "...", "column_names": ["..."], "column_types": ["..."], "example_row": ["..."]}]}`)
	prompt.WriteString("\n</output_format>")

	return prompt.String()
}

func parseSchemas(response string) ([]HypotheticalSchema, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var parsed struct {
		Schemas []HypotheticalSchema `json:"schemas"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return parsed.Schemas, nil
}

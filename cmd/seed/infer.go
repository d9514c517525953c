package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dataset-discovery-be/pkg/llm"
)

// metadataInferrer fills in corpus metadata that the raw data.gov-style
// dump lacks: the table schema text, plausible previous queries, and the
// temporal/geographic granularity.
type metadataInferrer struct {
	llmProvider llm.LLMProvider
}

type inferredGranularity struct {
	TimeGranu []string `json:"time_granu"`
	GeoGranu  []string `json:"geo_granu"`
}

func (m *metadataInferrer) InferTableSchema(ctx context.Context, name, description string, exampleRecords []byte) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("<system>\nYou are an assistant skilled in database schemas.\n</system>\n\n")
	prompt.WriteString(fmt.Sprintf("Given the dataset titled %q which includes data on %s, with example records like %s, directly list the likely table schema.\n", name, description, string(exampleRecords)))
	prompt.WriteString("Provide the schema as column names followed by their data types, one per line, without any introductory text.")

	return m.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0))
}

func (m *metadataInferrer) InferPreviousQueries(ctx context.Context, name, description string, exampleRecords []byte) ([]string, error) {
	var prompt strings.Builder
	prompt.WriteString("<system>\nYou are an assistant providing possible user queries for datasets.\n</system>\n\n")
	prompt.WriteString(fmt.Sprintf("Provide some data analytics tasks (e.g. data analysis, machine learning, business intelligence) that can be performed for the table titled %q which includes data on %s, with example records like %s.\n", name, description, string(exampleRecords)))
	prompt.WriteString("Specify tasks specific to the semantics of the table, excluding any introductory phrases.\n\n")
	prompt.WriteString("<output_format>\nRespond with ONLY valid JSON:\n{\"queries\": [\"...\"]}\n</output_format>")

	response, err := m.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.5))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := unmarshalJSONBlock(response, &parsed); err != nil {
		return nil, err
	}
	return parsed.Queries, nil
}

func (m *metadataInferrer) InferGranularity(ctx context.Context, name, description string, exampleRecords []byte) (inferredGranularity, error) {
	var prompt strings.Builder
	prompt.WriteString("<system>\nYou are an assistant skilled in determining data granularity.\n</system>\n\n")
	prompt.WriteString(fmt.Sprintf("Given a dataset titled %q with data on %s and example records like %s, determine the most likely geographic or temporal granularity present in the dataset, if any.\n", name, description, string(exampleRecords)))
	prompt.WriteString("Select the temporal granularity from: year, quarter, month, week, day, hour, minute, second.\n")
	prompt.WriteString("Select the geographic granularity from: continent, country, state/province, county/district, city, zip code/postal code.\n\n")
	prompt.WriteString("<output_format>\nRespond with ONLY valid JSON:\n{\"time_granu\": [\"...\"], \"geo_granu\": [\"...\"]}\n</output_format>")

	var parsed inferredGranularity
	response, err := m.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0))
	if err != nil {
		return parsed, err
	}
	if err := unmarshalJSONBlock(response, &parsed); err != nil {
		return parsed, err
	}
	return parsed, nil
}

func unmarshalJSONBlock(response string, out interface{}) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON found in response")
	}
	return json.Unmarshal([]byte(response[start:end+1]), out)
}

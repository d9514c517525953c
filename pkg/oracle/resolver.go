package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/llm"
	"dataset-discovery-be/pkg/predicate"
	"dataset-discovery-be/pkg/schema"
)

const maxAttempts = 2

// Resolver implements Oracle on top of a generic LLM provider. All calls
// run at temperature 0 and expect a single JSON object in the response.
type Resolver struct {
	llmProvider llm.LLMProvider
	log         logger.ILogger
}

var _ Oracle = &Resolver{}

func NewResolver(llmProvider llm.LLMProvider, log logger.ILogger) *Resolver {
	return &Resolver{
		llmProvider: llmProvider,
		log:         log,
	}
}

func (r *Resolver) InferAction(ctx context.Context, currentQuery, previousQuery string) (Action, error) {
	prompt := buildActionPrompt(currentQuery, previousQuery)

	response, err := r.generate(ctx, prompt)
	if err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var action Action
	if err := unmarshalResponse(response, &action); err != nil {
		// Fail closed: no ad hoc reinterpretation of free text
		return Action{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	if !action.Reset && !action.Refine {
		return Action{}, ErrClassificationAmbiguous
	}
	if action.Reset && action.Refine {
		r.log.Warn("oracle", "Both reset and refine asserted; refine takes precedence", map[string]interface{}{
			"query": currentQuery,
		})
		action.Reset = false
	}

	return action, nil
}

func (r *Resolver) InferMentionedFields(ctx context.Context, query string, category schema.FieldCategory) ([]schema.LogicalField, error) {
	prompt := buildFieldMentionPrompt(query, category)

	response, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var parsed struct {
		MentionedFields []string `json:"mentioned_fields"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var fields []schema.LogicalField
	for _, name := range parsed.MentionedFields {
		logical := schema.LogicalField(strings.ToLower(strings.TrimSpace(name)))
		f, ok := schema.Resolve(logical)
		if !ok || f.Category != category {
			r.log.Warn("oracle", "Dropping unknown or miscategorized field mention", map[string]interface{}{
				"field":    name,
				"category": string(category),
			})
			continue
		}
		fields = append(fields, logical)
	}
	return fields, nil
}

func (r *Resolver) InferFilterClauses(ctx context.Context, query string, fields []schema.LogicalField) ([]predicate.Clause, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	prompt := buildClausePrompt(query, fields)

	response, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	var parsed struct {
		Clauses []predicate.Clause `json:"clauses"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	return parsed.Clauses, nil
}

// generate calls the model with a small bounded retry. There is no backoff
// budget worth spending here beyond a second attempt; a persistently
// failing oracle fails the turn.
func (r *Resolver) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
		if err == nil {
			return response, nil
		}
		lastErr = err
		r.log.Warn("oracle", "LLM call failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
	return "", lastErr
}

func unmarshalResponse(response string, out interface{}) error {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return fmt.Errorf("no JSON found in response")
	}
	if err := json.Unmarshal([]byte(jsonContent), out); err != nil {
		return fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

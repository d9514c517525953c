package oracle

import (
	"fmt"
	"strings"

	"dataset-discovery-be/pkg/schema"
)

func buildActionPrompt(currentQuery, previousQuery string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an assistant skilled in search related decision making.\n")
	prompt.WriteString("You do NOT answer queries. You only classify them.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("Given two queries in a dataset search session, decide whether the new query is a \"reset\" or a \"refine\" in relation to the previous query.\n")
	prompt.WriteString("- A \"reset\" means the new query significantly differs from the previous query, indicating a change in the search domain or interest.\n")
	prompt.WriteString("- A \"refine\" means the new query builds upon or slightly alters the previous query, indicating a more focused search based on the earlier query.\n\n")

	if previousQuery == "" {
		prompt.WriteString("Previous query: (none)\n")
	} else {
		prompt.WriteString(fmt.Sprintf("Previous query: %q\n", previousQuery))
	}
	prompt.WriteString(fmt.Sprintf("Current query: %q\n\n", currentQuery))

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"reset\": true|false, \"refine\": true|false}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func buildFieldMentionPrompt(query string, category schema.FieldCategory) string {
	fields := schema.FieldsByCategory(category)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You identify which dataset metadata fields a search query refers to.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString(fmt.Sprintf("Candidate fields: %s\n", strings.Join(names, ", ")))
	prompt.WriteString(fmt.Sprintf("Query: %q\n\n", query))
	prompt.WriteString("List ONLY the candidate fields the query explicitly or implicitly mentions. An empty list is a valid answer.\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"mentioned_fields\": [\"field_a\", \"field_b\"]}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func buildClausePrompt(query string, fields []schema.LogicalField) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You translate natural language dataset filters into simple comparison clauses.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString(fmt.Sprintf("Fields to filter on: %s\n", strings.Join(names, ", ")))
	prompt.WriteString(fmt.Sprintf("Query: %q\n\n", query))
	prompt.WriteString("For each field, produce one clause of the form \"<operator> <value>\",\n")
	prompt.WriteString("e.g. \"> 10\", \"= 'year'\", \">= 5000\". Use only the operators =, !=, >, >=, <, <=.\n")
	prompt.WriteString("If the query asks for an ordering rather than a filter, use \"order asc\" or \"order desc\" as the clause.\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"clauses\": [{\"field\": \"column_count\", \"clause\": \"> 10\"}]}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

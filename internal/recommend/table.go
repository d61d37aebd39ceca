// Package recommend ranks models from a curated, scored reference table.
// Everything here is deterministic and free of I/O.
package recommend

type Category string

const (
	TextGeneration    Category = "text_generation"
	CodeGeneration    Category = "code_generation"
	QuestionAnswering Category = "question_answering"
	Summarization     Category = "summarization"
	Translation       Category = "translation"
)

type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

type ModelEntry struct {
	Name    string
	Score   float64
	Cost    Cost
	License string
	Source  string
}

type categoryKeywords struct {
	category Category
	keywords []string
}

// Table is the reference data the engine ranks from. Build it once and share
// it; nothing mutates it after construction.
type Table struct {
	keywords []categoryKeywords
	models   map[Category][]ModelEntry
	fallback Category
}

// DefaultTable returns the curated table. Keyword groups are listed in
// classification tie-break order.
func DefaultTable() *Table {
	return &Table{
		fallback: TextGeneration,
		keywords: []categoryKeywords{
			{TextGeneration, []string{"generate", "write", "create", "content", "article", "story"}},
			{CodeGeneration, []string{"code", "coding", "coder", "program", "develop", "script", "function", "debug"}},
			{QuestionAnswering, []string{"answer", "explain", "help", "question", "support", "faq"}},
			{Summarization, []string{"summarize", "summary", "brief", "overview", "digest"}},
			{Translation, []string{"translate", "language", "convert", "localize"}},
		},
		models: map[Category][]ModelEntry{
			TextGeneration: {
				{"gpt-4o", 9.5, CostHigh, "commercial", "OpenAI"},
				{"claude-3-sonnet", 9.2, CostHigh, "commercial", "Anthropic"},
				{"llama-3-70b", 8.8, CostMedium, "open", "Meta"},
				{"mistral-7b", 8.5, CostLow, "apache-2.0", "Mistral"},
			},
			CodeGeneration: {
				{"claude-3-sonnet", 9.8, CostHigh, "commercial", "Anthropic"},
				{"gpt-4o", 9.3, CostHigh, "commercial", "OpenAI"},
				{"codellama-34b", 8.9, CostMedium, "open", "Meta"},
			},
			QuestionAnswering: {
				{"gpt-4o", 9.4, CostHigh, "commercial", "OpenAI"},
				{"claude-3-haiku", 9.1, CostMedium, "commercial", "Anthropic"},
				{"gemma-7b", 8.3, CostLow, "apache-2.0", "Google"},
			},
		},
	}
}

// Models returns a copy of the entries for c, falling back to the default
// category when c has no table of its own.
func (t *Table) Models(c Category) []ModelEntry {
	ms, ok := t.models[c]
	if !ok {
		ms = t.models[t.fallback]
	}
	return append([]ModelEntry(nil), ms...)
}

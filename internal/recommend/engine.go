package recommend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const TopN = 3

type Links struct {
	Documentation string `json:"documentation"`
	HuggingFace   string `json:"huggingface"`
	Pricing       string `json:"pricing"`
}

type Recommendation struct {
	Model     ModelEntry `json:"model"`
	UseCase   Category   `json:"use_case"`
	Reasoning string     `json:"reasoning"`
	Links     Links      `json:"links"`
}

type Engine struct {
	table *Table
}

func NewEngine(t *Table) *Engine {
	if t == nil {
		t = DefaultTable()
	}
	return &Engine{table: t}
}

// Classify counts keyword hits per category and returns the category with the
// most hits. Ties go to the earlier category; no hits means the fallback.
func (e *Engine) Classify(text string) Category {
	lower := strings.ToLower(text)
	best, bestCount := e.table.fallback, 0
	for _, ck := range e.table.keywords {
		n := 0
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = ck.category, n
		}
	}
	return best
}

// Recommend returns up to TopN entries for the detected use case, highest score
// first; equal scores keep table order.
func (e *Engine) Recommend(text string) []Recommendation {
	useCase := e.Classify(text)

	models := e.table.Models(useCase)
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Score > models[j].Score
	})
	if len(models) > TopN {
		models = models[:TopN]
	}

	out := make([]Recommendation, 0, len(models))
	for _, m := range models {
		out = append(out, Recommendation{
			Model:     m,
			UseCase:   useCase,
			Reasoning: reasoning(m, useCase),
			Links:     links(m.Name, m.Source),
		})
	}
	return out
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

var costDescriptor = map[Cost]string{
	CostLow:    "Budget-friendly option",
	CostMedium: "Balanced cost-performance ratio",
	CostHigh:   "Premium option with advanced features",
}

func reasoning(m ModelEntry, useCase Category) string {
	score := formatScore(m.Score)

	var base string
	switch useCase {
	case TextGeneration:
		base = fmt.Sprintf("Recommended for %s due to strong performance (score: %s/10) and %s license", useCase, score, m.License)
	case CodeGeneration:
		base = fmt.Sprintf("Excellent for %s with high accuracy (score: %s/10) and good documentation", useCase, score)
	case QuestionAnswering:
		base = fmt.Sprintf("Optimal for %s with reliable responses (score: %s/10) and cost-effective pricing", useCase, score)
	default:
		base = fmt.Sprintf("Good fit for %s with score %s/10", useCase, score)
	}
	return fmt.Sprintf("%s. %s. Source: %s", base, costDescriptor[m.Cost], m.Source)
}

var docLinks = map[string]string{
	"OpenAI":    "https://platform.openai.com/docs/models/%s",
	"Anthropic": "https://docs.anthropic.com/claude/reference/%s",
	"Meta":      "https://huggingface.co/meta-llama/%s",
	"Mistral":   "https://huggingface.co/mistralai/%s",
	"Google":    "https://huggingface.co/google/%s",
}

func links(name, source string) Links {
	search := "https://huggingface.co/models?search=" + name

	doc := search
	if pattern, ok := docLinks[source]; ok {
		doc = fmt.Sprintf(pattern, name)
	}

	pricing := "https://huggingface.co/pricing"
	if source == "OpenAI" || source == "Anthropic" {
		pricing = fmt.Sprintf("https://%s.com/pricing", strings.ToLower(source))
	}

	return Links{Documentation: doc, HuggingFace: search, Pricing: pricing}
}

// Format renders recommendations as the markdown reply shown to the user.
func Format(recs []Recommendation) string {
	if len(recs) == 0 {
		return "I couldn't find suitable model recommendations for your use case. Please provide more specific requirements."
	}
	title := cases.Title(language.English)
	parts := make([]string, 0, len(recs))
	for i, r := range recs {
		parts = append(parts, fmt.Sprintf(`
**%d. %s**
📊 **Score:** %s/10
💰 **Cost:** %s
📜 **License:** %s
🏢 **Source:** %s
💡 **Why:** %s
🔗 **Links:** [Documentation](%s) | [HuggingFace](%s) | [Pricing](%s)
`, i+1, strings.ToUpper(r.Model.Name), formatScore(r.Model.Score), title.String(string(r.Model.Cost)),
			r.Model.License, r.Model.Source, r.Reasoning,
			r.Links.Documentation, r.Links.HuggingFace, r.Links.Pricing))
	}
	return strings.Join(parts, "\n")
}

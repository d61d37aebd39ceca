// Package intent decides which strategy answers a turn. Classification is a
// pure function of the attachment extension and the turn text.
package intent

import (
	"path/filepath"
	"strings"
)

type Branch string

const (
	ImageAnalysis        Branch = "image_analysis"
	DocumentAnalysis     Branch = "document_analysis"
	RecommendationSearch Branch = "recommendation_search"
	// Education and SmallTalk are canned sub-branches of general conversation.
	Education Branch = "education"
	SmallTalk Branch = "small_talk"
	General   Branch = "general"
)

type Turn struct {
	Text string
	// Attachment is the stored file path or name; empty when nothing was uploaded.
	Attachment string
}

type Decision struct {
	Branch Branch
	// WebSearch is only set for General.
	WebSearch bool
	// Canned is a ready reply; Education leaves it empty when the term is not
	// one it can explain without inference.
	Canned string
}

// Rule is one step of the decision order. The first rule that matches wins.
type Rule struct {
	Name  string
	Match func(att string, t text) (Decision, bool)
}

var ImageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

// Rules is the decision order. Reordering it changes routing.
var Rules = []Rule{
	{"image", func(att string, _ text) (Decision, bool) {
		return Decision{Branch: ImageAnalysis}, att != "" && ImageExtensions[extOf(att)]
	}},
	{"document", func(att string, _ text) (Decision, bool) {
		return Decision{Branch: DocumentAnalysis}, att != ""
	}},
	{"recommendation", func(_ string, t text) (Decision, bool) {
		return Decision{Branch: RecommendationSearch}, isRecommendation(t)
	}},
	{"education", func(_ string, t text) (Decision, bool) {
		if !isEducation(t) {
			return Decision{}, false
		}
		return Decision{Branch: Education, Canned: educationAnswer(t)}, true
	}},
	{"small_talk", func(_ string, t text) (Decision, bool) {
		reply, ok := smallTalk(t)
		return Decision{Branch: SmallTalk, Canned: reply}, ok
	}},
	{"general", func(_ string, t text) (Decision, bool) {
		return Decision{Branch: General, WebSearch: needsWebSearch(t)}, true
	}},
}

func Classify(turn Turn) Decision {
	t := normalize(turn.Text)
	att := strings.TrimSpace(turn.Attachment)
	for _, r := range Rules {
		if d, ok := r.Match(att, t); ok {
			return d
		}
	}
	return Decision{Branch: General}
}

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

var (
	strongIndicators = []string{
		"recommend llm", "suggest llm", "best llm", "which llm",
		"recommend model", "suggest model", "best model", "which model",
		"llm for", "model for",
	}
	recommendPrefixes = []string{"recommend", "suggest"}
	recommendWords    = []string{"best", "top", "good"}
	modelPrefixes     = []string{"llm", "model", "language model"}
	definitional      = []string{"what is llm", "what are llm", "explain llm", "define llm"}
)

func isRecommendation(t text) bool {
	if t.prefix(strongIndicators...) {
		return true
	}
	hasRecommend := t.prefix(recommendPrefixes...) || t.word(recommendWords...)
	if !hasRecommend || !t.prefix(modelPrefixes...) {
		return false
	}
	return !t.prefix(definitional...)
}

var educationPhrases = []string{
	"what is llm", "what is an llm", "what are llms", "define llm",
	"what is ai", "artificial intelligence", "how does ai work",
}

func isEducation(t text) bool {
	return t.phrase(educationPhrases...)
}

const (
	llmAnswer = `**LLM** stands for **Large Language Model** - these are AI systems trained on vast amounts of text data to understand and generate human-like text.
**Key characteristics:**
• **Large Scale**: Trained on billions of parameters and massive datasets
• **Versatile**: Can handle multiple tasks like writing, coding, analysis, conversation
• **Generative**: Create new content rather than just retrieving information
Would you like me to recommend specific LLMs for particular use cases?`

	aiAnswer = `**Artificial Intelligence (AI)** is technology that enables machines to simulate human intelligence.
**Key AI capabilities**:
• **Learning**: Improving performance through experience
• **Reasoning**: Making logical connections and decisions
• **Problem-solving**: Finding solutions to complex challenges
I'm here to demonstrate AI in action! What would you like to explore?`
)

func educationAnswer(t text) string {
	switch {
	case t.word("llm", "llms"):
		return llmAnswer
	case t.phrase("what is ai", "artificial intelligence", "how does ai work"):
		return aiAnswer
	default:
		return ""
	}
}

const (
	IdentityReply = `Hello! I'm an AI Assistant. I'm designed to be helpful, conversational, and intelligent. I can help you with:
• **Finding AI Models**
• **Document Analysis**
• **Image Processing**
• **General Questions**
What would you like to explore?`
	GreetingReply = "Hello! How can I help you today?"
	ThanksReply   = "You're very welcome! Is there anything else I can help with?"
	FarewellReply = "Goodbye! Have a great day."
)

func smallTalk(t text) (string, bool) {
	switch {
	case t.phrase("who are you", "what are you"):
		return IdentityReply, true
	case t.word("hi", "hello", "hey"):
		return GreetingReply, true
	case t.prefix("thank"):
		return ThanksReply, true
	case t.word("bye", "goodbye"):
		return FarewellReply, true
	default:
		return "", false
	}
}

var (
	recencyWords = []string{
		"current", "latest", "recent", "today", "now", "news",
		"update", "updates", "status", "trending",
	}
	explanatoryPrefixes = []string{"explain", "tell me about", "what is", "how does", "why does"}
)

func needsWebSearch(t text) bool {
	if t.word(recencyWords...) {
		return true
	}
	return t.fields > 4 && t.prefix(explanatoryPrefixes...)
}

package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/suPer8Hu/ai-assistant/internal/ai"
	"github.com/suPer8Hu/ai-assistant/internal/catalog"
	"github.com/suPer8Hu/ai-assistant/internal/document"
	"github.com/suPer8Hu/ai-assistant/internal/intent"
	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/recommend"
	"github.com/suPer8Hu/ai-assistant/internal/search"
)

const (
	DefaultReply            = "I'm here to help! Feel free to ask me anything."
	GenericErrorReply       = "I encountered an error while processing your request. Please try again!"
	CatalogUnavailableReply = "I cannot search for models because my model database is missing."
	NoCatalogMatchReply     = "I searched my database but couldn't find models matching your specific criteria. Try using keywords like 'coding', 'chat', 'writing', or 'analysis' for better results."
	searchFailedContext     = "I encountered an issue while searching the web. Let me try to help you with my existing knowledge instead."
)

const (
	RecommendCatalog = "catalog"
	RecommendEngine  = "engine"
)

// Generator produces text for a prompt and never fails; see ai.Client.
type Generator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) string
}

type Searcher interface {
	Search(ctx context.Context, query string) (search.Result, error)
}

type Options struct {
	TextModel   string
	VisionModel string
	// DocMaxChars bounds how much extracted text goes into a prompt.
	DocMaxChars   int
	RecommendMode string
}

type Deps struct {
	Transcript TranscriptStore
	Generator  Generator
	// Searcher may be nil; web-augmented turns then answer without search context.
	Searcher  Searcher
	Extractor *document.Extractor
	Catalog   *catalog.Store
	Engine    *recommend.Engine
	// Locker, when set, extends per-user serialization to every process
	// sharing the transcript.
	Locker TurnLocker
}

// Service is the failure boundary of a turn: every strategy outcome becomes
// exactly one reply string.
type Service struct {
	deps  Deps
	opts  Options
	locks userLocks
	now   func() time.Time
	log   *slog.Logger
}

func NewService(deps Deps, opts Options) *Service {
	if deps.Extractor == nil {
		deps.Extractor = document.NewExtractor(nil)
	}
	if deps.Engine == nil {
		deps.Engine = recommend.NewEngine(nil)
	}
	if opts.RecommendMode == "" {
		opts.RecommendMode = RecommendCatalog
	}
	return &Service{deps: deps, opts: opts, now: time.Now, log: logx.Module("chat")}
}

// Attachment is an uploaded file: Path is where it was stored, URL is what
// the transcript shows.
type Attachment struct {
	Path string
	URL  string
}

// HandleTurn records the user message, produces the reply, records it and
// returns the user's whole conversation. Turns for the same user run one at a
// time. Only lock and transcript errors are returned.
func (s *Service) HandleTurn(ctx context.Context, userID, text string, att *Attachment) ([]Message, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	if s.deps.Locker != nil {
		release, err := s.deps.Locker.LockTurn(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("lock turn: %w", err)
		}
		defer release()
	}

	userMsg := Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		Text:      strPtr(text),
		Timestamp: s.now(),
	}
	turn := intent.Turn{Text: text}
	if att != nil {
		userMsg.FileURL = strPtr(att.URL)
		turn.Attachment = att.Path
	}
	if err := s.deps.Transcript.Append(ctx, userID, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	reply := s.Reply(ctx, userID, turn)

	botMsg := Message{
		ID:        NewMessageID(),
		Role:      RoleBot,
		Text:      &reply,
		Timestamp: s.now(),
	}
	if err := s.deps.Transcript.Append(ctx, userID, botMsg); err != nil {
		return nil, fmt.Errorf("append bot message: %w", err)
	}
	if err := s.deps.Transcript.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush transcript: %w", err)
	}

	return s.deps.Transcript.GetAll(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID string) ([]Message, error) {
	return s.deps.Transcript.GetAll(ctx, userID)
}

// Reply routes a turn and runs the chosen strategy. It always returns a
// non-empty reply. In-flight calls are not cancelled when ctx is.
func (s *Service) Reply(ctx context.Context, userID string, turn intent.Turn) (reply string) {
	ctx = context.WithoutCancel(ctx)

	d := intent.Classify(turn)
	log := s.log.With("user_id", userID, "branch", d.Branch, "web_search", d.WebSearch)
	log.Info("routing turn")

	defer func() {
		if r := recover(); r != nil {
			log.Error("strategy panicked", "panic", r)
			reply = GenericErrorReply
		}
		if strings.TrimSpace(reply) == "" {
			reply = DefaultReply
		}
	}()

	out, err := s.dispatch(ctx, d, turn)
	if err != nil {
		log.Error("strategy failed", "err", err)
		return GenericErrorReply
	}
	return out
}

func (s *Service) dispatch(ctx context.Context, d intent.Decision, turn intent.Turn) (string, error) {
	switch d.Branch {
	case intent.ImageAnalysis:
		return s.describeImage(ctx, turn.Attachment, turn.Text), nil
	case intent.DocumentAnalysis:
		return s.answerFromDocument(ctx, turn.Attachment, turn.Text), nil
	case intent.RecommendationSearch:
		return s.recommend(turn.Text), nil
	case intent.Education:
		if d.Canned != "" {
			return d.Canned, nil
		}
		return s.generate(ctx, s.opts.TextModel, fmt.Sprintf(educationPrompt, turn.Text), nil), nil
	case intent.SmallTalk:
		return d.Canned, nil
	case intent.General:
		if d.WebSearch {
			return s.answerWithSearch(ctx, turn.Text), nil
		}
		return s.generate(ctx, s.opts.TextModel, fmt.Sprintf(conversationPrompt, turn.Text), nil), nil
	default:
		return "", fmt.Errorf("unknown branch %q", d.Branch)
	}
}

const (
	imagePrompt        = "Please analyze this image and respond to the user's request: %s"
	documentPrompt     = "Based on the following document content, please answer the user's question comprehensively.\n\nDOCUMENT CONTENT:\n---\n%s\n---\n\nUSER QUESTION: %s"
	educationPrompt    = "Please explain this AI/technology concept in a conversational, educational way: %s"
	conversationPrompt = "You are a helpful, intelligent AI assistant.\nUser: %s\nRespond in a natural, conversational way."
	searchPrompt       = "You are an intelligent AI assistant. A user asked: %q\nHere's information from a web search: %s\nPlease provide a comprehensive, conversational, and helpful response using this information."
)

func (s *Service) generate(ctx context.Context, model, prompt string, images []string) string {
	return s.deps.Generator.Generate(ctx, ai.GenerateRequest{Model: model, Prompt: prompt, Images: images})
}

func (s *Service) describeImage(ctx context.Context, path, text string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("image read failed", "path", path, "err", err)
		return fmt.Sprintf("I'm sorry, I couldn't read the image you uploaded: %v", err)
	}
	img := base64.StdEncoding.EncodeToString(b)
	return s.generate(ctx, s.opts.VisionModel, fmt.Sprintf(imagePrompt, text), []string{img})
}

func (s *Service) answerFromDocument(ctx context.Context, path, text string) string {
	content, err := s.deps.Extractor.Extract(path)
	if err != nil {
		var unsupported *document.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return fmt.Sprintf("Unsupported file type: '%s'. I can currently read PDF, DOCX, PPTX, and plain text files (%s).",
				unsupported.Ext, strings.Join(unsupported.Supported, ", "))
		}
		s.log.Warn("document extraction failed", "path", path, "err", err)
		return fmt.Sprintf("I'm sorry, I encountered an error while processing the file: %v", err)
	}
	content = document.Truncate(content, s.opts.DocMaxChars)
	return s.generate(ctx, s.opts.TextModel, fmt.Sprintf(documentPrompt, content, text), nil)
}

func (s *Service) recommend(text string) string {
	if s.opts.RecommendMode == RecommendEngine {
		return recommend.Format(s.deps.Engine.Recommend(text))
	}

	hits, err := s.deps.Catalog.Search(text)
	if errors.Is(err, catalog.ErrCatalogUnavailable) {
		return CatalogUnavailableReply
	}
	if len(hits) == 0 {
		return NoCatalogMatchReply
	}
	return catalog.FormatResults(hits)
}

func (s *Service) answerWithSearch(ctx context.Context, text string) string {
	found := searchFailedContext
	if s.deps.Searcher != nil {
		res, err := s.deps.Searcher.Search(ctx, text)
		if err != nil {
			s.log.Warn("web search failed", "err", err)
		} else {
			found = res.Format()
		}
	}
	return s.generate(ctx, s.opts.TextModel, fmt.Sprintf(searchPrompt, text, found), nil)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-assistant/internal/catalog"
	"github.com/suPer8Hu/ai-assistant/internal/chat"
	"github.com/suPer8Hu/ai-assistant/internal/common"
	"github.com/suPer8Hu/ai-assistant/internal/logx"
)

const DefaultUserID = "default_user"

// JobStore is the part of chat.Repo the async endpoints need.
type JobStore interface {
	CreateJob(ctx context.Context, job *chat.Job) error
	GetJobByID(ctx context.Context, id string) (*chat.Job, error)
	MarkJobFailed(ctx context.Context, id string, errMsg string) error
}

type JobQueue interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	ChatSvc   *chat.Service
	Catalog   *catalog.Store
	UploadDir string

	// Jobs and Queue are both required for async turns.
	Jobs  JobStore
	Queue JobQueue

	log *slog.Logger
}

func NewHandler(svc *chat.Service, cat *catalog.Store, uploadDir string) *Handler {
	return &Handler{
		ChatSvc:   svc,
		Catalog:   cat,
		UploadDir: uploadDir,
		log:       logx.Module("http"),
	}
}

// WithJobs enables POST /chat/async and GET /chat/jobs/:job_id.
func (h *Handler) WithJobs(jobs JobStore, queue JobQueue) *Handler {
	h.Jobs = jobs
	h.Queue = queue
	return h
}

func (h *Handler) asyncEnabled() bool {
	return h.Jobs != nil && h.Queue != nil
}

func (h *Handler) Root(c *gin.Context) {
	common.OK(c, gin.H{"message": "AI Assistant backend is running"})
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{
		"status":         "healthy",
		"catalog_loaded": h.Catalog.Available(),
		"catalog_models": h.Catalog.Len(),
		"async_enabled":  h.asyncEnabled(),
		"timestamp":      time.Now().UTC(),
	})
}

func (h *Handler) NotFound(c *gin.Context) {
	common.Fail(c, http.StatusNotFound, 40400, "route not found")
}

func (h *Handler) MethodNotAllowed(c *gin.Context) {
	common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
}

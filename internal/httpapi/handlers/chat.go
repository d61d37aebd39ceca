package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suPer8Hu/ai-assistant/internal/chat"
	"github.com/suPer8Hu/ai-assistant/internal/common"
	"github.com/suPer8Hu/ai-assistant/internal/httpapi/middleware"
	"gorm.io/gorm"
)

// resolveUserID prefers the authenticated subject over the submitted id.
func resolveUserID(c *gin.Context, submitted string) string {
	if uid, ok := middleware.UserID(c); ok {
		return uid
	}
	if s := strings.TrimSpace(submitted); s != "" {
		return s
	}
	return DefaultUserID
}

// saveUpload stores the multipart "file" field under a fresh name. It returns
// nil when the request carries no file.
func (h *Handler) saveUpload(c *gin.Context) (*chat.Attachment, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(h.UploadDir, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	return &chat.Attachment{Path: path, URL: "/uploads/" + name}, nil
}

// SendChat runs one turn. Form fields: prompt, user_id, file (optional).
func (h *Handler) SendChat(c *gin.Context) {
	userID := resolveUserID(c, c.PostForm("user_id"))
	prompt := c.PostForm("prompt")

	att, err := h.saveUpload(c)
	if err != nil {
		h.log.Error("upload failed", "user_id", userID, "err", err)
		common.Fail(c, http.StatusBadRequest, 10002, "invalid upload")
		return
	}

	msgs, err := h.ChatSvc.HandleTurn(c.Request.Context(), userID, prompt, att)
	if err != nil {
		h.log.Error("handle turn failed", "user_id", userID, "err", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to save conversation")
		return
	}

	common.OK(c, gin.H{
		"user_id":      userID,
		"conversation": msgs,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if uid, ok := middleware.UserID(c); ok && uid != userID {
		common.Fail(c, http.StatusForbidden, 40301, "forbidden")
		return
	}

	msgs, err := h.ChatSvc.History(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("load history failed", "user_id", userID, "err", err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load history")
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}

	common.OK(c, gin.H{
		"user_id":      userID,
		"conversation": msgs,
	})
}

// SendChatAsync stores the upload, records a queued job and hands it to the
// worker.
func (h *Handler) SendChatAsync(c *gin.Context) {
	if !h.asyncEnabled() {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async turns are disabled")
		return
	}

	userID := resolveUserID(c, c.PostForm("user_id"))
	prompt := c.PostForm("prompt")

	att, err := h.saveUpload(c)
	if err != nil {
		h.log.Error("upload failed", "user_id", userID, "err", err)
		common.Fail(c, http.StatusBadRequest, 10002, "invalid upload")
		return
	}

	jobID, err := chat.NewJobID()
	if err != nil {
		h.log.Error("new job id failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	j := &chat.Job{
		ID:     jobID,
		UserID: userID,
		Prompt: prompt,
		Status: chat.JobQueued,
	}
	if att != nil {
		j.FilePath = &att.Path
		j.FileURL = &att.URL
	}

	ctx := c.Request.Context()
	if err := h.Jobs.CreateJob(ctx, j); err != nil {
		h.log.Error("create job failed", "user_id", userID, "job_id", jobID, "err", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if err := h.Queue.PublishJob(ctx, jobID); err != nil {
		h.log.Error("publish job failed", "user_id", userID, "job_id", jobID, "err", err)
		_ = h.Jobs.MarkJobFailed(ctx, jobID, "enqueue failed")
		common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "ok",
		"data":    gin.H{"job_id": jobID},
	})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	if !h.asyncEnabled() {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async turns are disabled")
		return
	}
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10003, "job_id required")
		return
	}

	j, err := h.Jobs.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if uid, ok := middleware.UserID(c); ok && j.UserID != uid {
		// hide existence
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":                j.ID,
			"user_id":           j.UserID,
			"status":            j.Status,
			"result_message_id": j.ResultMessageID,
			"error":             j.Error,
			"created_at":        j.CreatedAt,
			"updated_at":        j.UpdatedAt,
		},
	})
}

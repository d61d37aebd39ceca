package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-assistant/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-assistant/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(h.NotFound)
	r.NoMethod(h.MethodNotAllowed)

	r.Use(middleware.RequestID())

	r.GET("/", h.Root)
	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)
	r.Static("/uploads", h.UploadDir)

	// Chat: bearer token optional, it only pins the user id.
	chatGroup := r.Group("/chat")
	chatGroup.Use(middleware.OptionalAuth(jwtSecret))
	chatGroup.POST("/", h.SendChat)
	chatGroup.GET("/history/:user_id", h.GetHistory)
	chatGroup.POST("/async", h.SendChatAsync)
	chatGroup.GET("/jobs/:job_id", h.GetChatJob)
	return r
}

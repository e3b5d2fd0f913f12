package main

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"go-nursejobs-pipeline/internal/indexnow"
	"go-nursejobs-pipeline/internal/logger"
)

// maxURLs caps one enqueue request.
const maxURLs = 10000

type enqueueRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

func newRouter(q indexnow.Queue, host string, lg *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		depth, err := q.Len(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "queue_depth": depth})
	})

	r.POST("/indexnow/urls", func(c *gin.Context) {
		var req enqueueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.URLs) > maxURLs {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many urls"})
			return
		}

		var accepted, rejected []string
		for _, raw := range req.URLs {
			if validURL(raw, host) {
				accepted = append(accepted, raw)
			} else {
				rejected = append(rejected, raw)
			}
		}
		if len(accepted) > 0 {
			if err := q.Push(c.Request.Context(), indexnow.URLItems(accepted)...); err != nil {
				lg.Error("❌ enqueue failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
				return
			}
		}
		lg.Info("📥 urls enqueued", "accepted", len(accepted), "rejected", len(rejected))
		c.JSON(http.StatusAccepted, gin.H{"queued": len(accepted), "rejected": rejected})
	})
	return r
}

// validURL accepts absolute http(s) URLs on host. An empty host accepts any.
func validURL(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return false
	}
	return host == "" || u.Hostname() == host
}

package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
	"github.com/example/inventory-backend/internal/feed"
	"github.com/example/inventory-backend/internal/models"
)

// RecentLogReader reads the newest product log entries.
type RecentLogReader interface {
	Recent(ctx context.Context, limit int) ([]models.ProductLogEntry, error)
}

// ActivityHandler exposes the product activity log.
type ActivityHandler struct {
	feed     *feed.Client
	recent   RecentLogReader
	limit    int
	closing  <-chan struct{}
	logger   *zap.Logger
	detailed bool
}

// NewActivityHandler creates a new ActivityHandler. Either source may be nil,
// in which case the matching endpoint is not registered. Open streams end
// when closing is closed; a nil channel never ends them.
func NewActivityHandler(client *feed.Client, recent RecentLogReader, limit int, closing <-chan struct{}, logger *zap.Logger, detailed bool) *ActivityHandler {
	if limit <= 0 {
		limit = feed.DefaultLimit
	}
	return &ActivityHandler{feed: client, recent: recent, limit: limit, closing: closing, logger: logger, detailed: detailed}
}

// ListRecent handles GET /api/activity
func (h *ActivityHandler) ListRecent(c *gin.Context) {
	entries, err := h.recent.Recent(c.Request.Context(), h.limit)
	if err != nil {
		h.logger.Error("Failed to load activity logs", zap.Error(err))
		responses.Internal(c, "Failed to load activity logs", err, h.detailed)
		return
	}
	entries = feed.Order(entries, h.limit)
	responses.List(c, "Activity retrieved successfully", entries, len(entries))
}

// Stream handles GET /api/activity/stream. Every feed update is sent as a
// "snapshot" server-sent event carrying the whole view. The stream ends
// after an error view, when the client goes away or when the server closes.
func (h *ActivityHandler) Stream(c *gin.Context) {
	updates := make(chan feed.View, 1)
	sub := h.feed.Subscribe(c.Request.Context(), func(v feed.View) {
		if v.Entries == nil {
			v.Entries = []models.ProductLogEntry{}
		}
		// Only the newest view matters; replace one still pending.
		select {
		case updates <- v:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- v
		}
	})
	defer sub.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		select {
		case v := <-updates:
			c.SSEvent("snapshot", v)
			return v.State != feed.StateError
		case <-c.Request.Context().Done():
			return false
		case <-h.closing:
			return false
		}
	})
}

package search

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"phrasehub/internal/live"
	"phrasehub/pkg/models"
)

const (
	MessageBatch   = "batch"
	MessageSummary = "summary"
)

// Message is one frame of the websocket search stream.
type Message struct {
	Type   string               `json:"type"`
	Batch  *models.BatchRecord  `json:"batch,omitempty"`
	Record *models.SearchRecord `json:"record,omitempty"`
}

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)             // GET /search?q=
	rg.GET("/search/stream", h.stream)      // GET /search/stream?q= (SSE)
	rg.GET("/ws/search", h.websocketSearch) // GET /ws/search?q=
}

func (h *Handler) start(c *gin.Context) (*Run, bool) {
	run, err := h.Service.Start(c.Request.Context(), c.Query("q"))
	if errors.Is(err, ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return nil, false
	}
	return run, true
}

func (h *Handler) search(c *gin.Context) {
	run, ok := h.start(c)
	if !ok {
		return
	}
	rec := run.Wait()
	top := parseInt(c.Query("top"), 0)
	rec.LeftWords = TrimWords(rec.LeftWords, top)
	rec.RightWords = TrimWords(rec.RightWords, top)
	c.JSON(http.StatusOK, rec)
}

// stream sends one "batch" event per cleaned batch and a final "summary"
// event carrying the whole record.
func (h *Handler) stream(c *gin.Context) {
	run, ok := h.start(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Search-Id", run.ID)

	batches := run.Batches()
	c.Stream(func(w io.Writer) bool {
		b, ok := <-batches
		if !ok {
			return false
		}
		c.SSEvent(MessageBatch, b.Record())
		return true
	})

	rec := run.Wait()
	if c.Request.Context().Err() != nil {
		return
	}
	c.SSEvent(MessageSummary, rec)
	c.Writer.Flush()
}

func (h *Handler) websocketSearch(c *gin.Context) {
	if strings.TrimSpace(c.Query("q")) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	ws, err := live.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	run, err := h.Service.Start(c.Request.Context(), c.Query("q"))
	if err != nil {
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
		return
	}

	for b := range run.Batches() {
		rec := b.Record()
		if err := ws.WriteJSON(Message{Type: MessageBatch, Batch: &rec}); err != nil {
			break
		}
	}
	rec := run.Wait()
	if err := ws.WriteJSON(Message{Type: MessageSummary, Record: &rec}); err != nil {
		return
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

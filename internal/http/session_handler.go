package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/chart"
	"go.ngs.io/hydroviewer/internal/usecase"
)

// SessionHandler exposes dashboard sessions: inputs in, views out.
type SessionHandler struct {
	sessions *usecase.SessionStore
	log      zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *usecase.SessionStore, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

// inputsRequest carries sidebar and slider changes. Absent fields are left alone.
type inputsRequest struct {
	Variable  *string `json:"variable"`
	TimeIndex *int    `json:"time_index"`
	Profile   *int    `json:"profile"`
	DataType  *string `json:"data_type"`
}

// clickRequest identifies a clicked polygon by outline point index or by position.
type clickRequest struct {
	PointIndex *int     `json:"point_index"`
	Lon        *float64 `json:"lon"`
	Lat        *float64 `json:"lat"`
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	sess, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess.View())
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// Delete handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// PostInputs handles POST /v1/sessions/:id/inputs. All fields are checked
// before any is applied, and a valid body produces a single update.
func (h *SessionHandler) PostInputs(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	var req inputsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	view, err := sess.Apply(c.Request.Context(), usecase.Inputs{
		Variable:  req.Variable,
		TimeIndex: req.TimeIndex,
		Profile:   req.Profile,
		DataType:  req.DataType,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// PostClick handles POST /v1/sessions/:id/click.
func (h *SessionHandler) PostClick(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	var (
		view usecase.View
		err  error
	)
	switch {
	case req.PointIndex != nil:
		view, err = sess.ClickPoint(c.Request.Context(), *req.PointIndex)
	case req.Lon != nil && req.Lat != nil:
		view, err = sess.ClickLocation(c.Request.Context(), *req.Lon, *req.Lat)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either point_index or lon/lat must be provided"})
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Events handles GET /v1/sessions/:id/events as a server-sent event stream.
// The current view is sent first, then one event per recomputation. A slow
// client only receives the latest view.
func (h *SessionHandler) Events(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	updates := make(chan usecase.View, 1)
	cancel := sess.Subscribe(func(v usecase.View) {
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
	defer cancel()

	c.SSEvent("view", sess.View())
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(io.Writer) bool {
		select {
		case v := <-updates:
			c.SSEvent("view", v)
			return true
		case <-sess.Done():
			return false
		case <-done:
			return false
		}
	})
}

// HeatmapPNG handles GET /v1/sessions/:id/heatmap.png.
func (h *SessionHandler) HeatmapPNG(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	h.png(c, sess.View().Heatmap)
}

// BoxplotPNG handles GET /v1/sessions/:id/boxplot.png.
func (h *SessionHandler) BoxplotPNG(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	h.png(c, sess.View().Boxplot)
}

func (h *SessionHandler) png(c *gin.Context, fig *chart.Figure) {
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, fig); err != nil {
		h.log.Error().Err(err).Str("session", c.Param("id")).Msg("failed to render png")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *SessionHandler) lookup(c *gin.Context) (*usecase.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

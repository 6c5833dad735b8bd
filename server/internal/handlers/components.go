// server/internal/handlers/components.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"video-coords/server/internal/component"
	"video-coords/server/internal/emitter"
	"video-coords/server/internal/geometry"
	"video-coords/server/internal/ledger"
	"video-coords/server/internal/metrics"
	"video-coords/server/internal/models"
	"video-coords/server/internal/source"
	"video-coords/server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewerContextKey is where the viewer middleware leaves the session's viewer id.
const ViewerContextKey = "viewer"

// maxUpload bounds multipart video uploads.
const maxUpload = 256 << 20

type ComponentHandler struct {
	log      *zap.Logger
	registry *component.Registry
	hub      *emitter.Hub
	mediaDir string
}

// NewComponentHandler builds the handler. Sources that are not URLs are only
// read from inside mediaDir; with an empty mediaDir they are refused.
func NewComponentHandler(log *zap.Logger, registry *component.Registry, hub *emitter.Hub, mediaDir string) *ComponentHandler {
	return &ComponentHandler{log: log, registry: registry, hub: hub, mediaDir: mediaDir}
}

// identity scopes the key in the path to the session's viewer.
func identity(c *gin.Context) (ledger.Identity, bool) {
	viewer := c.GetString(ViewerContextKey)
	key := c.Param("key")
	if viewer == "" || !utils.IsValidComponentKey(key) {
		return ledger.Identity{}, false
	}
	return ledger.Identity{Viewer: viewer, Key: key}, true
}

// Mount renders the component. The body is either JSON or a multipart form
// carrying the video under "video".
func (h *ComponentHandler) Mount(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid component key"})
		return
	}

	var cfg models.ComponentConfig
	var src string
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		cfg, src, err = h.bindUpload(c)
	} else {
		if bindErr := c.ShouldBindJSON(&cfg); bindErr != nil {
			h.log.Warn("Failed to bind component config", zap.Error(bindErr))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
			return
		}
		src, err = source.Resolve(cfg.Src, h.mediaDir)
	}
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	frameRate := 0.0
	if cfg.FPS != nil {
		frameRate = *cfg.FPS
	}
	comp, seekTo, err := h.registry.Mount(c.Request.Context(), id, component.Config{
		Source:    src,
		Width:     cfg.Width,
		Height:    cfg.Height,
		StartTime: cfg.StartTime,
		FrameRate: frameRate,
	})
	if err != nil {
		h.respondError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, comp.View(seekTo))
}

func (h *ComponentHandler) bindUpload(c *gin.Context) (models.ComponentConfig, string, error) {
	var cfg models.ComponentConfig
	file, err := c.FormFile("video")
	if err != nil {
		return cfg, "", errors.Join(source.ErrSourceUnavailable, err)
	}
	if file.Size > maxUpload {
		return cfg, "", errors.Join(source.ErrSourceUnavailable, errors.New("upload too large"))
	}
	f, err := file.Open()
	if err != nil {
		return cfg, "", errors.Join(source.ErrSourceUnavailable, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return cfg, "", errors.Join(source.ErrSourceUnavailable, err)
	}

	cfg.Src = file.Filename
	cfg.Width = formInt(c, "width")
	cfg.Height = formInt(c, "height")
	if v, err := strconv.ParseFloat(c.PostForm("start_time"), 64); err == nil {
		cfg.StartTime = v
	}
	if v, err := strconv.ParseFloat(c.PostForm("fps"), 64); err == nil {
		cfg.FPS = &v
	}

	src, err := source.FromBytes(content, file.Filename)
	return cfg, src, err
}

func formInt(c *gin.Context, name string) *int {
	v, err := strconv.Atoi(c.PostForm(name))
	if err != nil {
		return nil
	}
	return &v
}

// Metadata reports the video's native size once the element has loaded it.
func (h *ComponentHandler) Metadata(c *gin.Context) {
	comp, ok := h.lookup(c)
	if !ok {
		return
	}

	var report models.MetadataReport
	if err := c.ShouldBindJSON(&report); err != nil {
		h.log.Warn("Failed to bind metadata", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	state, err := comp.LoadedMetadata(report.VideoWidth, report.VideoHeight)
	if err != nil {
		h.respondError(c, comp.ID(), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state.String()})
}

// Click records one pointer event and answers with the whole ledger.
func (h *ComponentHandler) Click(c *gin.Context) {
	comp, ok := h.lookup(c)
	if !ok {
		return
	}

	var report models.ClickReport
	if err := c.ShouldBindJSON(&report); err != nil {
		h.log.Warn("Failed to bind click report", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	clicks, err := comp.HandleClick(c.Request.Context(), component.ClickFromReport(report))
	if err != nil {
		h.respondError(c, comp.ID(), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clicks": clicks})
}

func (h *ComponentHandler) List(c *gin.Context) {
	comp, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"clicks": comp.Clicks()})
}

// Summary reports metrics over the ledger.
func (h *ComponentHandler) Summary(c *gin.Context) {
	comp, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics.Summarize(comp.Clicks())})
}

// Events streams the ledger as server-sent events. The current list is sent
// first, then the full list again after every append.
func (h *ComponentHandler) Events(c *gin.Context) {
	comp, ok := h.lookup(c)
	if !ok {
		return
	}

	updates, cancel := h.hub.Subscribe(comp.ID())
	defer cancel()

	c.SSEvent("clicks", comp.Clicks())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case clicks, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("clicks", clicks)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Release tears the component down and deletes its ledger.
func (h *ComponentHandler) Release(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid component key"})
		return
	}
	if err := h.registry.Release(c.Request.Context(), id); err != nil {
		h.respondError(c, id, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ComponentHandler) lookup(c *gin.Context) (*component.Component, bool) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid component key"})
		return nil, false
	}
	comp, err := h.registry.Get(id)
	if err != nil {
		h.respondError(c, id, err)
		return nil, false
	}
	return comp, true
}

// respondError maps engine errors onto status codes. Clicks that are not
// recordable are dropped without a body.
func (h *ComponentHandler) respondError(c *gin.Context, id ledger.Identity, err error) {
	switch {
	case errors.Is(err, component.ErrInvalidPointerTarget), errors.Is(err, component.ErrPlaybackActive):
		h.log.Debug("Click ignored", zap.Stringer("component", id), zap.Error(err))
		c.Status(http.StatusNoContent)
	case errors.Is(err, component.ErrNotMounted):
		c.JSON(http.StatusNotFound, gin.H{"error": "Component not mounted"})
	case errors.Is(err, source.ErrSourceUnavailable):
		h.log.Warn("Video source unavailable", zap.Stringer("component", id), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, geometry.ErrGeometryUnavailable):
		h.log.Warn("Click without video geometry", zap.Stringer("component", id), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "Video geometry unavailable"})
	default:
		h.log.Error("Component request failed", zap.Stringer("component", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
	}
}

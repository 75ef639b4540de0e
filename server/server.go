// Package server - HTTP control surface and MJPEG video feed.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vcam-ai/go-vbg/backgrounds"
	"github.com/vcam-ai/go-vbg/compositor"
	"github.com/vcam-ai/go-vbg/mask"
	"github.com/vcam-ai/go-vbg/pipeline"
	"github.com/vcam-ai/go-vbg/segmentation"
	"github.com/vcam-ai/go-vbg/session"
)

// thumbWidth is the background strip thumbnail width.
const thumbWidth = 160

// Options wires the server to its per-stream dependencies. Source and
// segmenter are opened per /video_feed request and released when that
// stream ends.
type Options struct {
	// OpenSource acquires the camera. Called once per stream request.
	OpenSource func() (pipeline.Source, error)
	// NewSegmenter builds the segmentation backend for one stream.
	NewSegmenter func() (segmentation.Segmenter, error)
	// JPEGQuality is the stream encode quality.
	JPEGQuality int
}

// Server exposes the control routes and the video feed.
type Server struct {
	store  *backgrounds.Store
	state  *session.State
	opts   Options
	engine *gin.Engine
}

// New builds the router. The session state is shared with the streaming
// loop; handlers mutate it, the loop snapshots it per frame.
func New(store *backgrounds.Store, state *session.State, opts Options) *Server {
	s := &Server{
		store:  store,
		state:  state,
		opts:   opts,
		engine: gin.Default(),
	}

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/set_background/:index", s.handleSetBackground)
	s.engine.GET("/toggle_blur/:state", s.handleToggleBlur)
	s.engine.GET("/video_feed", s.handleVideoFeed)
	s.engine.GET("/backgrounds/:index/thumb", s.handleThumbnail)
	s.engine.GET("/healthz", s.handleHealth)
	return s
}

// Handler returns the underlying HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("server: listening on %s, %d backgrounds loaded", addr, s.store.Len())
	return s.engine.Run(addr)
}

// handleIndex resets the session to its defaults and serves the UI shell.
// Loading the page is a fresh session.
func (s *Server) handleIndex(c *gin.Context) {
	s.state.Reset()
	c.Data(http.StatusOK, "text/html; charset=utf-8", renderIndex(s.store.Len()))
}

func (s *Server) handleSetBackground(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid index format"})
		return
	}
	if err := s.state.SetBackground(idx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid index"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "selected_index": idx})
}

func (s *Server) handleToggleBlur(c *gin.Context) {
	v, err := strconv.Atoi(c.Param("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid blur state"})
		return
	}
	enabled := v != 0
	s.state.SetBlur(enabled)
	c.JSON(http.StatusOK, gin.H{"status": "success", "blur_enabled": enabled})
}

// handleVideoFeed runs one frame pipeline for the lifetime of the request
// and writes each JPEG as a part of a multipart-replace stream. Client
// disconnect cancels the loop through the request context; the camera is
// released by the pipeline on every exit path.
func (s *Server) handleVideoFeed(c *gin.Context) {
	src, err := s.opts.OpenSource()
	if err != nil {
		log.Printf("server: camera unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "camera unavailable"})
		return
	}

	seg, err := s.opts.NewSegmenter()
	if err != nil {
		src.Close()
		log.Printf("server: segmenter init failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "segmentation unavailable"})
		return
	}
	defer seg.Close()

	proc := mask.NewProcessor()
	defer proc.Close()
	comp := compositor.New(s.store)
	defer comp.Close()

	driver := &pipeline.Driver{
		Segmenter:   seg,
		Processor:   proc,
		Compositor:  comp,
		State:       s.state,
		JPEGQuality: s.opts.JPEGQuality,
	}

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	w := c.Writer
	emit := func(frame []byte) error {
		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\n\r\n"); err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
			return err
		}
		w.Flush()
		return nil
	}

	if err := driver.Run(c.Request.Context(), src, emit); err != nil {
		// Headers are long gone; all we can do is end the stream loudly.
		log.Printf("server: video feed terminated: %v", err)
	}
}

func (s *Server) handleThumbnail(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid index format"})
		return
	}
	png, err := s.store.Thumbnail(idx, thumbWidth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid index"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backgrounds": s.store.Len()})
}

// Package devserver serves a deterministic fixture reels API for local
// runs and integration tests.
package devserver

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/sidechain/reels/pkg/api"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Options configures a dev server.
type Options struct {
	Items int
	Seed  uint64
	// FailRate is the fraction of mutations rejected with 503, for
	// exercising client rollback.
	FailRate float64
	// Latency delays every API response.
	Latency time.Duration
}

// OptionsFromConfig reads the devserver.* keys.
func OptionsFromConfig() Options {
	return Options{
		Items:    config.GetInt("devserver.items"),
		Seed:     uint64(config.GetInt("devserver.seed")),
		FailRate: config.GetFloat64("devserver.fail_rate"),
		Latency:  config.GetDuration("devserver.latency"),
	}
}

// Server is the fixture API.
type Server struct {
	opts    Options
	store   *Store
	hub     *hub
	metrics *Metrics
	engine  *gin.Engine

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds the server and its routes. Call Close when done.
func New(opts Options) *Server {
	if opts.Items <= 0 {
		opts.Items = 60
	}
	m := NewMetrics()
	s := &Server{
		opts:    opts,
		store:   NewStore(opts.Items, opts.Seed),
		hub:     newHub(m),
		metrics: m,
		rng:     rand.New(rand.NewSource(int64(opts.Seed))),
	}
	go s.hub.run()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger())
	r.Use(m.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/v1/ws", "/media", "/metrics"}),
	))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "reels-devserver",
			"items":     s.store.Len(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	r.GET("/media/:file", s.media)

	v1 := r.Group("/api/v1")
	v1.Use(s.latency())
	{
		v1.GET("/reels", s.listReels)
		v1.POST("/reels/:id/like", s.flaky(), s.toggleLike)
		v1.POST("/reels/:id/save", s.flaky(), s.toggleSave)
		v1.GET("/reels/:id/comments", s.listComments)
		v1.POST("/reels/:id/comments", s.flaky(), s.createComment)
		v1.GET("/comments/:id/replies", s.listReplies)
		v1.POST("/comments/:id/like", s.flaky(), s.toggleCommentLike)
	}
	r.GET("/api/v1/ws", func(c *gin.Context) { s.hub.serve(c.Writer, c.Request) })

	s.engine = r
	return s
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Store exposes the fixtures.
func (s *Server) Store() *Store { return s.store }

// Close stops the live counter hub.
func (s *Server) Close() { s.hub.stop() }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("Dev server listening", "addr", addr, "items", s.store.Len())

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) listReels(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := clampLimit(queryInt(c, "limit", defaultLimit), defaultLimit)
	personalized, _ := strconv.ParseBool(c.DefaultQuery("personalized", "true"))

	items, hasMore := s.store.Page(personalized, c.Query("category"), page, limit)
	c.JSON(http.StatusOK, api.ReelsResponse{Items: items, HasMore: hasMore, Page: page})
}

func (s *Server) toggleLike(c *gin.Context) {
	liked, count, err := s.store.ToggleLike(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	s.metrics.TogglesTotal.WithLabelValues("like", toggleState(liked)).Inc()
	s.hub.publish(reels.KindLike, c.Param("id"), count)
	c.JSON(http.StatusOK, api.LikeResponse{Liked: liked, Count: count})
}

func (s *Server) toggleSave(c *gin.Context) {
	saved, count, err := s.store.ToggleSave(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	s.metrics.TogglesTotal.WithLabelValues("save", toggleState(saved)).Inc()
	s.hub.publish(reels.KindSave, c.Param("id"), count)
	c.JSON(http.StatusOK, api.SaveResponse{Saved: saved, Count: count})
}

func (s *Server) listComments(c *gin.Context) {
	offset := queryInt(c, "cursor", 0)
	limit := clampLimit(queryInt(c, "limit", 20), 20)
	comments, hasMore, err := s.store.Comments(c.Param("id"), offset, limit)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CommentsResponse{Comments: comments, HasMore: hasMore})
}

func (s *Server) listReplies(c *gin.Context) {
	replies, err := s.store.Replies(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, api.RepliesResponse{Replies: replies})
}

func (s *Server) createComment(c *gin.Context) {
	var req api.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	comment, count, err := s.store.AddComment(c.Param("id"), req.Content, req.ParentID)
	if err != nil {
		abort(c, err)
		return
	}
	s.metrics.CommentsPosted.Inc()
	s.hub.publish(reels.KindComments, c.Param("id"), count)
	c.JSON(http.StatusCreated, api.CreateCommentResponse{Comment: comment})
}

func (s *Server) toggleCommentLike(c *gin.Context) {
	liked, count, err := s.store.ToggleCommentLike(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	s.metrics.TogglesTotal.WithLabelValues("comment_like", toggleState(liked)).Inc()
	s.hub.publish(reels.KindCommentLike, c.Param("id"), count)
	c.JSON(http.StatusOK, api.CommentLikeResponse{Liked: liked, LikeCount: count})
}

func (s *Server) media(c *gin.Context) {
	data, contentType, err := s.store.Media(c.Param("file"))
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

// flaky rejects a fraction of mutations before they reach the store.
func (s *Server) flaky() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.FailRate <= 0 {
			return
		}
		s.rngMu.Lock()
		fail := s.rng.Float64() < s.opts.FailRate
		s.rngMu.Unlock()
		if fail {
			s.metrics.InjectedFailures.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "injected_failure"})
		}
	}
}

func (s *Server) latency() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.Latency <= 0 {
			return
		}
		select {
		case <-time.After(s.opts.Latency):
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}

// requestID echoes or assigns X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"request_id", c.GetString("request_id"),
		}
		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}

func abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, errInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func clampLimit(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return min(n, maxLimit)
}

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/config"
	"github.com/cinematch/engine/internal/core/evaluation"
	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/recommend"
	"github.com/cinematch/engine/internal/core/retrieval"
	"github.com/cinematch/engine/internal/data"
)

type Server struct {
	rec  *recommend.Recommender
	eval *evaluation.Evaluator
	repo *data.Repository
	cfg  *config.Config
	log  *zap.Logger
}

func NewServer(rec *recommend.Recommender, eval *evaluation.Evaluator, repo *data.Repository, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{rec: rec, eval: eval, repo: repo, cfg: cfg, log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = s.cfg.Server.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.Health)
	r.POST("/recommendations", s.Recommendations)
	r.POST("/swipe", s.Swipe)
	r.GET("/session/:id/stats", s.SessionStats)
	r.GET("/session/:id/matches", s.SessionMatches)
	r.DELETE("/session/:id", s.ClearSession)
	r.GET("/evaluate", s.Evaluate)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"movies": s.repo.Len(),
	})
}

// recommendResponse adds the session id so first-time clients learn the
// id the server minted for them.
type recommendResponse struct {
	*recommend.Response
	SessionID string `json:"session_id"`
}

func (s *Server) Recommendations(c *gin.Context) {
	var req recommend.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Participants) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one participant is required"})
		return
	}
	for _, p := range req.Participants {
		if p.Name == "" || len(p.Moods) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every participant needs a name and at least one mood"})
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := s.rec.Recommend(c.Request.Context(), req)
	if err != nil {
		s.log.Error("recommendation failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, retrieval.ErrAllParticipantsFailed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to generate recommendations"})
		return
	}

	c.JSON(http.StatusOK, recommendResponse{Response: resp, SessionID: req.SessionID})
}

type swipeRequest struct {
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	MovieID   int    `json:"movie_id"`
	Action    string `json:"action"`
	Round     int    `json:"round"`
}

func (s *Server) Swipe(c *gin.Context) {
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" || req.UserName == "" || req.MovieID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id, user_name and movie_id are required"})
		return
	}
	action := model.SwipeAction(req.Action)
	if !action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be like, dislike or skip"})
		return
	}

	rec := model.SwipeRecord{
		SessionID: req.SessionID,
		UserName:  req.UserName,
		MovieID:   req.MovieID,
		Action:    action,
		Round:     req.Round,
		Timestamp: time.Now().UTC(),
	}
	total, ready, err := s.rec.RecordSwipe(c.Request.Context(), rec)
	if err != nil {
		s.log.Error("swipe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record swipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "recorded",
		"total_swipes":   total,
		"feedback_ready": ready,
	})
}

func (s *Server) SessionStats(c *gin.Context) {
	sessionID := c.Param("id")
	stats, seen, err := s.rec.SessionStats(c.Request.Context(), sessionID)
	if err != nil {
		s.log.Error("session stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"users":      stats,
		"seen_count": len(seen),
		"seen":       seen,
	})
}

func (s *Server) SessionMatches(c *gin.Context) {
	sessionID := c.Param("id")
	matches, err := s.rec.SessionMatches(c.Request.Context(), sessionID)
	if err != nil {
		s.log.Error("session matches failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"perfect":    matches.Perfect,
		"majority":   matches.Majority,
	})
}

func (s *Server) ClearSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := s.rec.ClearSession(c.Request.Context(), sessionID); err != nil {
		s.log.Error("clear session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "session_id": sessionID})
}

func (s *Server) Evaluate(c *gin.Context) {
	report, err := s.eval.RunFullEvaluation(c.Request.Context())
	if err != nil {
		s.log.Error("evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

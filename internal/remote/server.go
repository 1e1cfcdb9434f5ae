package remote

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mschirtzinger/planner/internal/task"
)

var errInvalidRequestBody = errors.New("invalid request body")

// Server exposes a MemoryStore over the remote HTTP API. It is the reference
// remote used by `planner serve-remote` and by the client tests.
type Server struct {
	store  *MemoryStore
	logger *log.Logger
	engine *gin.Engine
}

// NewServer builds the gin router for store.
func NewServer(store *MemoryStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{store: store, logger: logger, engine: r}

	api := r.Group("/api")
	api.GET("/tasks/undeleted", s.handleUndeleted)
	api.GET("/tasks/count", s.handleCount)
	api.POST("/task", s.handlePushTask)
	api.POST("/tasks", s.handlePushBatch)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleUndeleted(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Undeleted())
}

func (s *Server) handleCount(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Count())
}

func (s *Server) handlePushTask(c *gin.Context) {
	var t task.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		s.logger.Printf("Rejected task: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidRequestBody.Error()})
		return
	}
	if err := t.Validate(); err != nil {
		s.logger.Printf("Rejected task %d: %v", t.ID, err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if !s.store.Upsert(t) {
		s.logger.Printf("Kept newer copy of task %d", t.ID)
	}
	c.Status(http.StatusOK)
}

func (s *Server) handlePushBatch(c *gin.Context) {
	var tasks []task.Task
	if err := c.ShouldBindJSON(&tasks); err != nil {
		s.logger.Printf("Rejected batch: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidRequestBody.Error()})
		return
	}
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			s.logger.Printf("Rejected batch entry %d: %v", tasks[i].ID, err)
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}

	for _, t := range tasks {
		s.store.Upsert(t)
	}
	s.logger.Printf("Stored batch of %d tasks", len(tasks))
	c.Status(http.StatusOK)
}

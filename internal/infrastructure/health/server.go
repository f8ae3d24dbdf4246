package health

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Server exposes the daemon's liveness and status endpoints.
type Server struct {
	outputDir string
	engine    *gin.Engine
}

// NewServer builds the health router over the configured output directory.
func NewServer(outputDir string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{outputDir: outputDir, engine: engine}
	engine.GET("/", s.healthCheck)
	engine.GET("/status", s.status)
	return s
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "news-markets",
		"scheduler": "running",
	})
}

func (s *Server) status(c *gin.Context) {
	fileCount := 0
	if entries, err := os.ReadDir(s.outputDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
				fileCount++
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "news-markets",
		"scheduler":        "running",
		"output_files":     fileCount,
		"output_directory": s.outputDir,
	})
}

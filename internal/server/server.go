package server

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/dossier/internal/config"
	"github.com/agenthands/dossier/internal/core"
	"github.com/agenthands/dossier/internal/core/model"
	"github.com/agenthands/dossier/internal/llm"
	"github.com/agenthands/dossier/internal/store"
)

type Server struct {
	Dossier *core.Dossier
	Config  *config.Config
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: Could not load %s: %v. Using defaults with env overrides", cfgPath, err)
		cfg = config.Default()
	}

	// Env vars override file config.
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}
	if envURI := os.Getenv("MEMGRAPH_URI"); envURI != "" {
		cfg.Memgraph.URI = envURI
	}
	if envUser := os.Getenv("MEMGRAPH_USER"); envUser != "" {
		cfg.Memgraph.User = envUser
	}
	if envPass := os.Getenv("MEMGRAPH_PASSWORD"); envPass != "" {
		cfg.Memgraph.Password = envPass
	}

	if cfg.Memgraph.URI == "" {
		cfg.Memgraph.URI = "bolt://localhost:7687"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	d, err := store.NewMemgraphDriver(cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
	if err != nil {
		log.Fatalf("Failed to connect to Memgraph: %v", err)
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "default"
	}

	return &Server{
		Dossier: core.NewDossier(d, llmClient, cfg, userID),
		Config:  cfg,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/extract", s.Extract)
	r.GET("/health", s.Health)

	return r
}

type ExtractRequest struct {
	Text       string                `json:"text" binding:"required"`
	Context    string                `json:"context"`
	SourceCode string                `json:"source_code"`
	Session    []model.SessionEntity `json:"session_entities"`
	SyncToDB   bool                  `json:"sync_to_db"`
}

func (s *Server) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sourceCode := req.SourceCode
	if sourceCode == "" {
		sourceCode = "USER"
	}

	result, err := s.Dossier.ProcessNote(c.Request.Context(), req.Text, req.Context, sourceCode, req.Session, req.SyncToDB)
	if err != nil {
		log.Printf("Failed to process note: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process note"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": s.Config.LLM.Provider,
		"model":    s.Config.LLM.Model,
	})
}

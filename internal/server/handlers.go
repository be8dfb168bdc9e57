package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type sessionRequest struct {
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type refreshRequest struct {
	CurrentClientSecret string `json:"currentClientSecret"`
}

type toolCallRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type addDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"environment":      s.config.Environment,
		"agent_configured": s.sessions.Configured(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// An empty body means an anonymous session.
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.sessions.Create(r.Context(), req.UserID)
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to create session: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	secret, err := s.sessions.Start(r.Context())
	if err != nil {
		s.logger.Error("start session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to start session: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"client_secret": secret})
}

func (s *Server) handleRefreshSession(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentClientSecret == "" {
		s.respondError(w, http.StatusBadRequest, "currentClientSecret is required")
		return
	}
	secret, err := s.sessions.Refresh(r.Context(), req.CurrentClientSecret)
	if err != nil {
		s.logger.Error("refresh session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to refresh session: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"client_secret": secret})
}

func (s *Server) handleTestTool(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := s.registry.Get(req.ToolName); !ok {
		s.respondError(w, http.StatusBadRequest,
			"Unknown tool: "+req.ToolName+". Available tools: "+strings.Join(s.registry.Names(), ", "))
		return
	}
	s.logger.Debug("tool test request", zap.String("tool", req.ToolName))
	result, err := s.registry.Invoke(r.Context(), req.ToolName, req.Parameters)
	if err != nil {
		s.logger.Error("tool execution failed", zap.String("tool", req.ToolName), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Tool execution failed: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"tool": req.ToolName, "result": result})
}

func (s *Server) handleKnowledgeBaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.kb.Stats(r.Context())
	if err != nil {
		s.logger.Error("knowledge base stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleKnowledgeBaseSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K <= 0 {
		req.K = s.config.Search.DefaultK
	}
	s.logger.Debug("knowledge base search", zap.String("query", req.Query), zap.Int("k", req.K))
	results, err := s.kb.Search(r.Context(), req.Query, req.K)
	if err != nil {
		s.logger.Error("knowledge base search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}

func (s *Server) handleKnowledgeBaseAdd(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		s.respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	if err := s.kb.AddDocument(r.Context(), req.Title, req.Content); err != nil {
		s.logger.Error("add document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.kb.Save(); err != nil {
		s.logger.Error("save knowledge base failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"title": req.Title, "status": "added"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

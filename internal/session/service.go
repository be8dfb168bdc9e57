package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConfigured indicates missing agent credentials. Session endpoints
// cannot mint secrets without an API key and agent ID.
var ErrNotConfigured = errors.New("agent is not configured")

// Session is the response payload for a newly created session.
type Session struct {
	SessionID    string `json:"session_id"`
	ClientSecret string `json:"client_secret"`
	AgentID      string `json:"agent_id"`
}

// Service creates and refreshes chat sessions for the hosted agent. Client
// secrets are opaque tokens minted locally; the upstream agent exchange is
// owned by the agent service itself.
type Service struct {
	apiKey  string
	agentID string
	store   *Store
	logger  *zap.Logger
}

// NewService creates a session service backed by store.
func NewService(apiKey, agentID string, store *Store, logger *zap.Logger) *Service {
	return &Service{
		apiKey:  apiKey,
		agentID: agentID,
		store:   store,
		logger:  logger,
	}
}

// Configured reports whether agent credentials are present.
func (s *Service) Configured() bool {
	return s.apiKey != "" && s.agentID != ""
}

func (s *Service) checkConfigured() error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: missing API key (set OPENAI_API_KEY)", ErrNotConfigured)
	}
	if s.agentID == "" {
		return fmt.Errorf("%w: missing agent ID (set OPENAI_AGENT_ID)", ErrNotConfigured)
	}
	return nil
}

// Create mints a new session for userID (may be empty for anonymous users).
func (s *Service) Create(ctx context.Context, userID string) (*Session, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	rec := &Record{
		ID:           "session_" + uuid.NewString(),
		UserID:       userID,
		ClientSecret: "cs_" + uuid.NewString(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.logger.Debug("session created", zap.String("session_id", rec.ID), zap.String("user_id", userID))
	return &Session{
		SessionID:    rec.ID,
		ClientSecret: rec.ClientSecret,
		AgentID:      s.agentID,
	}, nil
}

// Start mints an anonymous session and returns its client secret.
func (s *Service) Start(ctx context.Context) (string, error) {
	sess, err := s.Create(ctx, "")
	if err != nil {
		return "", err
	}
	return sess.ClientSecret, nil
}

// Refresh exchanges a current client secret for a new one on the same session.
func (s *Service) Refresh(ctx context.Context, currentSecret string) (string, error) {
	if err := s.checkConfigured(); err != nil {
		return "", err
	}
	rec, err := s.store.GetBySecret(ctx, currentSecret)
	if err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	newSecret := "cs_" + uuid.NewString()
	if err := s.store.Refresh(ctx, rec.ID, newSecret); err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	s.logger.Debug("session refreshed", zap.String("session_id", rec.ID))
	return newSecret, nil
}

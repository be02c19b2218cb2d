// Package push delivers web push notifications through FCM HTTP v1.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// Message describes one push delivery.
type Message struct {
	Token string
	Title string
	Body  string
	Link  string
}

// Sender authenticates against FCM with a Firebase service account and
// posts messages to the HTTP v1 endpoint.
type Sender struct {
	projectID string
	source    oauth2.TokenSource
	client    *http.Client
	logger    *slog.Logger
}

type serviceAccount struct {
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// NewSender reads the service-account JSON file and prepares a token source.
func NewSender(credentialsPath string, logger *slog.Logger) (*Sender, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("push: read credentials: %w", err)
	}
	var creds serviceAccount
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("push: parse credentials: %w", err)
	}
	if creds.ProjectID == "" || creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, fmt.Errorf("push: credentials missing project_id, client_email or private_key")
	}

	cfg := &jwt.Config{
		Email: creds.ClientEmail,
		// Keys exported with escaped newlines must be unescaped before parsing.
		PrivateKey: []byte(strings.ReplaceAll(creds.PrivateKey, `\n`, "\n")),
		Scopes:     []string{"https://www.googleapis.com/auth/firebase.messaging"},
		TokenURL:   creds.TokenURI,
	}

	return &Sender{
		projectID: creds.ProjectID,
		source:    cfg.TokenSource(context.Background()),
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}, nil
}

// Send posts one notification to the recipient's device token.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	token, err := s.source.Token()
	if err != nil {
		return fmt.Errorf("push: fetch access token: %w", err)
	}

	payload := map[string]any{
		"message": map[string]any{
			"token": msg.Token,
			"notification": map[string]string{
				"title": msg.Title,
				"body":  msg.Body,
			},
			"webpush": map[string]any{
				"fcm_options": map[string]string{"link": msg.Link},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("push: marshal message: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("push: fcm status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	s.logger.Debug("push delivered", slog.String("title", msg.Title))
	return nil
}

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	YouTubeScope = "https://www.googleapis.com/auth/youtube"

	defaultRedirectURL = "http://localhost"
	httpTimeout        = 30 * time.Second
)

// Config возвращает OAuth-конфигурацию Google для управления библиотекой YouTube.
func Config(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  defaultRedirectURL,
		Scopes:       []string{YouTubeScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthURL возвращает адрес, который пользователь открывает для выдачи доступа.
func AuthURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange обменивает код на токен и сохраняет его в файл.
func Exchange(ctx context.Context, cfg *oauth2.Config, code, path string) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("ошибка обмена кода на токен: %w", err)
	}
	if err := SaveToken(path, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// LoadToken читает токен из JSON-файла.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("token not found: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	return &tok, nil
}

// SaveToken записывает токен с правами только для владельца.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return nil
}

// persistingSource записывает обновлённый токен обратно в файл.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// TokenSource читает токен из файла и обновляет его по мере истечения.
func TokenSource(ctx context.Context, cfg *oauth2.Config, path string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	return newPersistingSource(cfg.TokenSource(ctx, tok), tok, path), nil
}

func newPersistingSource(base oauth2.TokenSource, tok *oauth2.Token, path string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(tok, &persistingSource{base: base, path: path, last: tok.AccessToken})
}

// HTTPClient подписывает запросы токеном поверх переданного транспорта.
func HTTPClient(ts oauth2.TokenSource, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
		Timeout:   httpTimeout,
	}
}

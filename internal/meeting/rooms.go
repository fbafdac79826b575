package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/harborhealth/harbor-backend/internal/config"
)

// ErrRoomsNotConfigured is returned when the video provider credentials
// are missing.
var ErrRoomsNotConfigured = errors.New("video provider api key and secret not configured")

// DefaultTokenTTL matches the longest expected therapy session.
const DefaultTokenTTL = 2 * time.Hour

// RoomsClient talks to the video-call provider's rooms API. Room tokens
// are HS256 JWTs signed with the provider secret, per the provider's
// authentication scheme.
type RoomsClient struct {
	apiKey  string
	secret  string
	baseURL string
	http    *http.Client
}

// NewRoomsClient creates a rooms client from configuration.
func NewRoomsClient(cfg config.RoomsConfig) *RoomsClient {
	return &RoomsClient{
		apiKey:  cfg.APIKey,
		secret:  cfg.Secret,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether provider credentials are present.
func (c *RoomsClient) Configured() bool {
	return c.apiKey != "" && c.secret != ""
}

// Token signs a join token. An empty roomID yields a token valid for any
// room, used when creating one.
func (c *RoomsClient) Token(roomID string, ttl time.Duration) (string, error) {
	if !c.Configured() {
		return "", ErrRoomsNotConfigured
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"apikey":      c.apiKey,
		"permissions": []string{"allow_join"},
		"version":     2,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	if roomID != "" {
		claims["roomId"] = roomID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.secret))
}

// CreateRoom creates a new room and returns its id.
func (c *RoomsClient) CreateRoom(ctx context.Context) (string, error) {
	token, err := c.Token("", DefaultTokenTTL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", strings.NewReader("{}"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("create room: provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("create room: decode response: %w", err)
	}
	if out.RoomID == "" {
		return "", errors.New("create room: provider returned no room id")
	}
	return out.RoomID, nil
}

// ValidateRoom checks that a room id is known to the provider.
func (c *RoomsClient) ValidateRoom(ctx context.Context, roomID string) (bool, error) {
	token, err := c.Token(roomID, time.Hour)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rooms/validate/"+roomID, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("validate room: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

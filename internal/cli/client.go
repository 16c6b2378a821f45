package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PassResponse — сводка прохода из API.
type PassResponse struct {
	Skipped               bool   `json:"skipped"`
	Reason                string `json:"reason,omitempty"`
	ExpiredPublications   int    `json:"expired_publications"`
	ExpiredPosts          int64  `json:"expired_posts"`
	TriggeredPublications int    `json:"triggered_publications"`
}

// PublicationResponse — публикация из API.
type PublicationResponse struct {
	ID                  string `json:"id"`
	ProjectID           string `json:"project_id"`
	OwnerID             string `json:"owner_id"`
	Status              string `json:"status"`
	ScheduledAt         string `json:"scheduled_at,omitempty"`
	ProcessingStartedAt string `json:"processing_started_at,omitempty"`
	ArchivedAt          string `json:"archived_at,omitempty"`
	EffectiveAt         string `json:"effective_at"`
	CreatedAt           string `json:"created_at"`
}

// PostResponse — пост из API.
type PostResponse struct {
	ID            string `json:"id"`
	PublicationID string `json:"publication_id"`
	ChannelID     string `json:"channel_id"`
	Status        string `json:"status"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
	Error         string `json:"error,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Emissary API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Passes ---

// TriggerPass запускает проход планировщика по требованию.
func (c *Client) TriggerPass() (*PassResponse, error) {
	var pass PassResponse
	err := c.post("/api/v1/passes", nil, &pass)
	return &pass, err
}

// --- Publications ---

// GetPublication возвращает публикацию по ID.
func (c *Client) GetPublication(id string) (*PublicationResponse, error) {
	var pub PublicationResponse
	err := c.get("/api/v1/publications/"+id, &pub)
	return &pub, err
}

// ListPosts возвращает посты публикации.
func (c *Client) ListPosts(publicationID string) ([]PostResponse, error) {
	var posts []PostResponse
	err := c.list("/api/v1/publications/"+publicationID+"/posts", &posts)
	return posts, err
}

// --- Health ---

// Health проверяет доступность сервера.
func (c *Client) Health() error {
	resp, err := c.do(http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

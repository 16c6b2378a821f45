package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultDispatchTimeout = 30 * time.Second

// HTTPBackend — delivery backend за HTTP.
//
// Отправляет POST {base_url}/dispatch с телом:
//
//	{"publication_id": "...", "skip_lock": true}
//
// Любой ответ < 400 считается принятой доставкой; терминальные статусы
// публикации backend выставляет в общей БД самостоятельно.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend создаёт HTTPBackend для заданного базового URL.
func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// dispatchRequest — тело запроса доставки.
type dispatchRequest struct {
	PublicationID uuid.UUID `json:"publication_id"`
	SkipLock      bool      `json:"skip_lock"`
}

// Dispatch выполняет синхронный запрос доставки публикации.
func (b *HTTPBackend) Dispatch(ctx context.Context, publicationID uuid.UUID, opts Options) error {
	body, err := json.Marshal(dispatchRequest{
		PublicationID: publicationID,
		SkipLock:      opts.SkipLock,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrDispatch, err)
	}

	url := b.baseURL + "/dispatch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrDispatch, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrDispatch, resp.StatusCode, truncate(string(respBody), 200))
	}

	return nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

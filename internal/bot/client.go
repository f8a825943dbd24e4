// Package bot is a minimal client for the Bale messenger bot API, which
// mirrors the Telegram bot API surface. Only the handful of methods the
// backup pipeline needs are implemented.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the Bale API endpoint.
const DefaultBaseURL = "https://tapi.bale.ai"

// ErrNoToken is returned when the client is used without a configured token.
var ErrNoToken = errors.New("bot token not configured")

// APIError is a non-ok response from the bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bot api error %d: %s", e.Code, e.Description)
}

// Client talks to one bot.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// New builds a client. An empty baseURL falls back to DefaultBaseURL.
func New(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) fileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read bot response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode bot response (status %d): %w", resp.StatusCode, err)
	}
	if !env.OK {
		return &APIError{Code: env.ErrorCode, Description: env.Description}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode bot result: %w", err)
		}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, method string, form url.Values, out any) error {
	if c.token == "" {
		return ErrNoToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method),
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("build bot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call bot %s: %w", method, err)
	}
	return decode(resp, out)
}

// Message is the subset of a bot message the backup flow cares about.
type Message struct {
	MessageID int64     `json:"message_id"`
	Date      int64     `json:"date"`
	Text      string    `json:"text"`
	Document  *Document `json:"document"`
}

// Document is an attached file reference.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// Update is one getUpdates entry. Channel posts and direct messages both
// carry the document the restore flow looks for.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message"`
	ChannelPost *Message `json:"channel_post"`
}

// SendMessage posts a text message to a chat or channel.
func (c *Client) SendMessage(ctx context.Context, chatID, textBody string) (Message, error) {
	var msg Message
	err := c.postForm(ctx, "sendMessage", url.Values{
		"chat_id": {chatID},
		"text":    {textBody},
	}, &msg)
	return msg, err
}

// SendDocument uploads a file with a caption as a multipart request.
func (c *Client) SendDocument(ctx context.Context, chatID, filename string, content io.Reader, caption string) (Message, error) {
	if c.token == "" {
		return Message{}, ErrNoToken
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", chatID); err != nil {
		return Message{}, fmt.Errorf("build upload: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return Message{}, fmt.Errorf("build upload: %w", err)
		}
	}
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return Message{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Message{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Message{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &buf)
	if err != nil {
		return Message{}, fmt.Errorf("build bot request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("call bot sendDocument: %w", err)
	}
	var msg Message
	if err := decode(resp, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// GetUpdates fetches queued updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit int) ([]Update, error) {
	form := url.Values{}
	if offset != 0 {
		form.Set("offset", strconv.FormatInt(offset, 10))
	}
	if limit > 0 {
		form.Set("limit", strconv.Itoa(limit))
	}
	var updates []Update
	if err := c.postForm(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type fileInfo struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

// Download resolves a file id via getFile and streams its content.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	var info fileInfo
	if err := c.postForm(ctx, "getFile", url.Values{"file_id": {fileID}}, &info); err != nil {
		return nil, err
	}
	if info.FilePath == "" {
		return nil, fmt.Errorf("bot api returned no file path for %s", fileID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL(info.FilePath), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: status %d", fileID, resp.StatusCode)
	}
	return resp.Body, nil
}

package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "@channel", r.Form.Get("chat_id"))
		assert.Equal(t, "hello", r.Form.Get("text"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 42, "text": "hello"},
		})
	}))
	defer srv.Close()

	c := New("TOKEN", srv.URL)
	msg, err := c.SendMessage(context.Background(), "@channel", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.MessageID)
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  403,
			"description": "bot was blocked",
		})
	}))
	defer srv.Close()

	c := New("TOKEN", srv.URL)
	_, err := c.SendMessage(context.Background(), "@channel", "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "blocked")
}

func TestSendDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "@channel", r.FormValue("chat_id"))
		assert.Equal(t, "a caption", r.FormValue("caption"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "backup.zip", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "zip-bytes", string(content))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 7,
				"document":   map[string]any{"file_id": "F1", "file_name": "backup.zip"},
			},
		})
	}))
	defer srv.Close()

	c := New("TOKEN", srv.URL)
	msg, err := c.SendDocument(context.Background(), "@channel", "backup.zip", strings.NewReader("zip-bytes"), "a caption")
	require.NoError(t, err)
	require.NotNil(t, msg.Document)
	assert.Equal(t, "F1", msg.Document.FileID)
}

func TestGetUpdatesAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": true,
				"result": []map[string]any{
					{"update_id": 1, "channel_post": map[string]any{
						"message_id": 1,
						"document":   map[string]any{"file_id": "F9", "file_name": "armkala-backup_x.zip"},
					}},
				},
			})
		case "/botTOKEN/getFile":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"file_id": "F9", "file_path": "documents/file9.zip"},
			})
		case "/file/botTOKEN/documents/file9.zip":
			_, _ = w.Write([]byte("archive-content"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New("TOKEN", srv.URL)

	updates, err := c.GetUpdates(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].ChannelPost)
	assert.Equal(t, "F9", updates[0].ChannelPost.Document.FileID)

	body, err := c.Download(context.Background(), "F9")
	require.NoError(t, err)
	defer body.Close()
	content, _ := io.ReadAll(body)
	assert.Equal(t, "archive-content", string(content))
}

func TestNoToken(t *testing.T) {
	c := New("", "http://unused")
	_, err := c.SendMessage(context.Background(), "x", "y")
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = c.SendDocument(context.Background(), "x", "f", strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

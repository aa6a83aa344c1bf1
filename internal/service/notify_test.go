package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierDisabledWithoutToken(t *testing.T) {
	n := NewTelegramNotifier("", "123", "http://localhost:5008")
	assert.False(t, n.Enabled())
	// 未配置时发送是空操作，不能报错
	assert.NoError(t, n.SendMessage("123", "xin chào"))
}

func TestSendMessage(t *testing.T) {
	var gotChatID, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotChatID = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token-thu-nghiem", "123", "http://localhost:5008")
	n.apiBase = srv.URL

	require.NoError(t, n.SendMessage("123", "xin chào"))
	assert.Equal(t, "123", gotChatID)
	assert.Equal(t, "xin chào", gotText)
}

func TestNotifyNewMoviesMessage(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotText = r.FormValue("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token-thu-nghiem", "123", "https://phimhub.example")
	n.apiBase = srv.URL

	n.NotifyNewMovies([]string{"phim-a", "phim-b"})
	assert.Contains(t, gotText, "2 phim mới")
	assert.Contains(t, gotText, "https://phimhub.example/phim/phim-a")
	assert.Contains(t, gotText, "https://phimhub.example/phim/phim-b")
}

func TestGetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "offset=5")
		w.Write([]byte(`{"ok":true,"result":[{"update_id":6,"message":{"chat":{"id":99},"text":"/stats"}}]}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token-thu-nghiem", "123", "http://localhost:5008")
	n.apiBase = srv.URL

	updates, err := n.GetUpdates(5)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(6), updates[0].UpdateID)
	assert.Equal(t, "/stats", updates[0].Message.Text)
	assert.Equal(t, int64(99), updates[0].Message.Chat.ID)
}

package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leboncoin-watcher/models"
	"leboncoin-watcher/utils"
)

func init() {
	utils.SetOutput(io.Discard)
}

func fixedNotifier(url string) *DiscordNotifier {
	n := NewDiscordNotifier(url, "Alerte Immo", "https://img.test/avatar.png", 2*time.Second)
	n.now = func() time.Time { return time.Date(2026, 10, 19, 14, 5, 0, 0, time.Local) }
	return n
}

func TestBuildPayload(t *testing.T) {
	n := fixedNotifier("http://unused")
	p := n.BuildPayload(models.Listing{
		ID:       "2712345678",
		Title:    "T2 Croix-Rousse",
		Price:    models.IntPtr(890),
		URL:      "https://www.leboncoin.fr/ad/locations/2712345678",
		City:     "Lyon",
		ImageURL: "https://img.test/1.jpg",
	})

	assert.Equal(t, "Alerte Immo", p.Username)
	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "🏠 T2 Croix-Rousse", e.Title)
	assert.Equal(t, "https://www.leboncoin.fr/ad/locations/2712345678", e.URL)
	assert.Equal(t, embedColor, e.Color)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "**890 €**", e.Fields[0].Value)
	assert.Equal(t, "Lyon", e.Fields[1].Value)
	assert.True(t, e.Fields[0].Inline)
	require.NotNil(t, e.Image)
	assert.Equal(t, "https://img.test/1.jpg", e.Image.URL)
	assert.Equal(t, "ID: 2712345678 • Trouvé à 14:05", e.Footer.Text)
}

func TestBuildPayloadWithoutOptionalFields(t *testing.T) {
	p := fixedNotifier("http://unused").BuildPayload(models.Listing{ID: "1", Title: "x", URL: "u"})
	e := p.Embeds[0]
	assert.Nil(t, e.Image)
	assert.Equal(t, "N/C", e.Fields[0].Value)
	assert.Equal(t, "Inconnue", e.Fields[1].Value)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"image"`)
}

func TestNotifySuccess(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := fixedNotifier(srv.URL).Notify(context.Background(), models.Listing{ID: "7", Title: "Loft", URL: "u", Price: models.IntPtr(1)})
	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "🏠 Loft", got.Embeds[0].Title)
}

func TestNotifyNonNoContentIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You are being rate limited."}`))
	}))
	defer srv.Close()

	err := fixedNotifier(srv.URL).Notify(context.Background(), models.Listing{ID: "7", Title: "Loft", URL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNotifyOKIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.Error(t, fixedNotifier(srv.URL).Notify(context.Background(), models.Listing{ID: "1", Title: "t", URL: "u"}))
}

func TestNotifyNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := fixedNotifier(url).Notify(context.Background(), models.Listing{ID: "1", Title: "t", URL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network")
}

func TestNotifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := fixedNotifier(srv.URL)
	n.client.Timeout = 50 * time.Millisecond
	assert.Error(t, n.Notify(context.Background(), models.Listing{ID: "1", Title: "t", URL: "u"}))
}

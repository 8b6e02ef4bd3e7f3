package notifications_test

import (
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"magal/internal/api"
	"magal/internal/model"
	"magal/internal/pagination"
	"magal/internal/provider"
	"magal/internal/provider/notifications"
	"magal/internal/validation"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newProvider(t *testing.T, mux *http.ServeMux) notifications.Provider {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := api.New(srv.URL, api.WithLogger(log))
	require.NoError(t, err)

	return notifications.NewNotificationsProvider(client, validation.New(), log)
}

func TestListAndCount(t *testing.T) {
	queries := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"titre":"Rappel","message":"La conférence commence","evenement":{"id":3,"titre":"Conférence"},"est_lu":false,"date_lu":null},
			{"id":2,"titre":"Bienvenue","message":"Bon Magal","evenement":null,"est_lu":true,"date_lu":"2025-08-10 09:00"}
		],"pagination":{"current_page":1,"last_page":1,"per_page":10,"total":2}}`))
	})
	mux.HandleFunc("GET /notifications/non-lues/count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":1}`))
	})
	p := newProvider(t, mux)

	f := pagination.DefaultNotificationFilter()
	f.Status = pagination.UnreadOnly
	page, err := p.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "page=1&per_page=10&statut=non-lues", <-queries)
	require.Len(t, page.Data, 2)
	require.NotNil(t, page.Data[0].Event)
	assert.Nil(t, page.Data[0].ReadAt)
	assert.Nil(t, page.Data[1].Event)

	n, err := p.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkRead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /notifications/1/marquer-comme-lue", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("POST /notifications/marquer-toutes-comme-lues", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"count":4}`))
	})
	mux.HandleFunc("DELETE /notifications/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	p := newProvider(t, mux)
	ctx := context.Background()

	require.NoError(t, p.MarkRead(ctx, 1))

	n, err := p.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.ErrorIs(t, p.Delete(ctx, 9), api.ErrNotFound)
}

func TestSendToRegistrants_SetsEventID(t *testing.T) {
	bodies := make(chan model.Broadcast, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /notifications/envoyer-aux-inscrits", func(w http.ResponseWriter, r *http.Request) {
		var b model.Broadcast
		_ = json.NewDecoder(r.Body).Decode(&b)
		bodies <- b
		_, _ = w.Write([]byte(`{"success":true,"message":"Notification envoyée","notification":{"id":11,"titre":"Changement d'horaire"},"count":37}`))
	})
	p := newProvider(t, mux)

	res, err := p.SendToRegistrants(context.Background(), 3, model.Broadcast{Title: "Changement d'horaire", Message: "La conférence est décalée à 16h."})
	require.NoError(t, err)
	assert.Equal(t, 37, res.Count)
	require.NotNil(t, res.Notification)
	assert.Equal(t, int64(11), res.Notification.ID)

	sent := <-bodies
	require.NotNil(t, sent.EventID)
	assert.Equal(t, int64(3), *sent.EventID)
}

func TestSendToAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /notifications/envoyer-a-tous", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"count":120}`))
	})
	p := newProvider(t, mux)

	_, err := p.SendToAll(context.Background(), model.Broadcast{Title: "Sans message"})
	require.ErrorIs(t, err, provider.ErrInvalidInput)

	res, err := p.SendToAll(context.Background(), model.Broadcast{Title: "Bon Magal", Message: "Bienvenue à Touba"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 120, res.Count)
}

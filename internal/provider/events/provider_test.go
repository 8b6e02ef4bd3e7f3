package events_test

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
	"magal/internal/provider/events"
	"magal/internal/validation"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newProvider(t *testing.T, mux *http.ServeMux) events.Provider {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := api.New(srv.URL, api.WithLogger(log))
	require.NoError(t, err)

	return events.NewEventsProvider(client, validation.New(), log)
}

func TestList(t *testing.T) {
	queries := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evenements", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 1, "titre": "Conférence religieuse", "places_restantes": null, "est_actif": true},
				{"id": 2, "titre": "Prière du vendredi", "capacite_max": 100, "places_restantes": 12}
			],
			"pagination": {"current_page": 1, "last_page": 3, "per_page": 9, "total": 20}
		}`))
	})

	f := pagination.DefaultEventFilter()
	f.Period = pagination.PeriodUpcoming
	page, err := newProvider(t, mux).List(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "page=1&per_page=9&periode=avenir&sort=asc", <-queries)
	require.Len(t, page.Data, 2)
	assert.Nil(t, page.Data[0].SeatsLeft)
	require.NotNil(t, page.Data[1].SeatsLeft)
	assert.Equal(t, 12, *page.Data[1].SeatsLeft)
	assert.Equal(t, 3, page.Pagination.LastPage)
	assert.True(t, pagination.HasNext(page.Pagination))
}

func TestList_MalformedItem(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evenements", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"titre":"sans id"}]}`))
	})

	_, err := newProvider(t, mux).List(context.Background(), pagination.DefaultEventFilter())
	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
}

func TestGet_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evenements/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Événement non trouvé"}`))
	})

	_, err := newProvider(t, mux).Get(context.Background(), 404)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestGet_WithParticipants(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evenements/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":` + r.PathValue("id") + `,"titre":"Magal","inscrits":[{"id":4,"nom":"Sow","prenom":"Aly","email":"aly@example.sn","date_inscription":"2025-08-01"}]}}`))
	})

	ev, err := newProvider(t, mux).Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.ID)
	require.Len(t, ev.Participants, 1)
	assert.Equal(t, "Sow", ev.Participants[0].Name)
}

func TestCreate_ValidatesBeforeSending(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /evenements", func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid input must not reach the server")
	})

	_, err := newProvider(t, mux).Create(context.Background(), model.EventInput{Title: "ab", Description: "court"})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
	assert.Contains(t, err.Error(), "titre: min=3")
}

func TestCreateUpdateDelete(t *testing.T) {
	bodies := make(chan model.EventInput, 2)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /evenements", func(w http.ResponseWriter, r *http.Request) {
		var in model.EventInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		bodies <- in
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":10,"titre":"` + in.Title + `"},"message":"Événement créé"}`))
	})
	mux.HandleFunc("PUT /evenements/10", func(w http.ResponseWriter, r *http.Request) {
		var in model.EventInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		bodies <- in
		_, _ = w.Write([]byte(`{"data":{"id":10,"titre":"` + in.Title + `"}}`))
	})
	mux.HandleFunc("DELETE /evenements/10", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	p := newProvider(t, mux)
	ctx := context.Background()

	capacity := 200
	in := model.EventInput{
		Title:       "Conférence sur Cheikh Ahmadou Bamba",
		Description: "Conférence d'ouverture du Magal.",
		Type:        model.EventConference,
		DateTime:    "2025-08-12 10:00",
		Location:    "Grande Mosquée",
		Capacity:    &capacity,
	}

	ev, err := p.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(10), ev.ID)
	assert.Equal(t, in, <-bodies)

	in.Title = "Conférence (reportée)"
	ev, err = p.Update(ctx, 10, in)
	require.NoError(t, err)
	assert.Equal(t, "Conférence (reportée)", ev.Title)
	assert.Equal(t, in.Title, (<-bodies).Title)

	require.NoError(t, p.Delete(ctx, 10))
}

func TestRegistration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /evenements/3/inscription", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Inscription réussie"}`))
	})
	mux.HandleFunc("DELETE /evenements/3/inscription", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Désinscription réussie"}`))
	})
	mux.HandleFunc("POST /evenements/4/inscription", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Événement complet"}`))
	})
	mux.HandleFunc("GET /mes-inscriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"evenement":{"id":3,"titre":"Magal"}}]}`))
	})
	p := newProvider(t, mux)
	ctx := context.Background()

	res, err := p.Register(ctx, 3)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = p.Unregister(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Désinscription réussie", res.Message)

	_, err = p.Register(ctx, 4)
	require.ErrorIs(t, err, api.ErrValidation)

	regs, err := p.MyRegistrations(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Magal", regs[0].Event.Title)
}

func TestNewEventsProvider_NilLogger(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evenements", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	require.NoError(t, err)
	p := events.NewEventsProvider(client, validation.New(), nil)

	assert.NotPanics(t, func() {
		_, err = p.List(context.Background(), pagination.DefaultEventFilter())
	})
	require.ErrorIs(t, err, api.ErrServer)
}

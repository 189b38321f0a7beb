package idm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

func TestGetIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identity/42/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"identity": map[string]any{
				"id":    "42",
				"@type": "Person",
				"state": "established",
				"primary_name": map[string]string{
					"first": "Ada", "last": "Lovelace",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	identity, err := c.GetIdentity(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", identity.ID)
	assert.Equal(t, TypePerson, identity.Type)
	require.NotNil(t, identity.PrimaryName)
	assert.Equal(t, "Ada", identity.PrimaryName.First)
}

func TestGetIdentity_Non2xxIsServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.GetIdentity(context.Background(), "42")
	require.ErrorIs(t, err, ErrServiceFailure)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadGateway, serr.Status)
}

func TestMerge_DirectionExplicit(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	require.NoError(t, c.Merge(context.Background(), "5", "9"))

	// "into" owns the merge endpoint, "from" rides in the body.
	assert.Equal(t, "/identity/5/merge/", gotPath)
	assert.Equal(t, "9", gotBody["id"])
}

func TestActivateIdentity_KnownEmailIsPatched(t *testing.T) {
	var patched, created, activated bool
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/identity/7/" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"identity": map[string]any{
					"id": "7", "@type": "Person", "state": "pending",
					"emails": []map[string]any{
						{"url": srvURL + "/email/1/", "value": "u@x", "context": "home", "validated": false},
					},
				},
			})
		case r.URL.Path == "/email/1/" && r.Method == http.MethodPatch:
			patched = true
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/email/" && r.Method == http.MethodPost:
			created = true
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/identity/7/activate/" && r.Method == http.MethodPost:
			activated = true
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	s := &Syncer{Client: NewClient(srv.URL, nil)}
	user := &repository.User{ID: "u1", Email: "u@x"}
	require.NoError(t, s.ActivateIdentity(context.Background(), user, "7"))
	assert.True(t, patched)
	assert.False(t, created)
	assert.True(t, activated)
}

func TestActivateIdentity_UnknownEmailIsCreated(t *testing.T) {
	var created, activated bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/identity/7/" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"identity": map[string]any{"id": "7", "@type": "Person", "state": "pending"},
			})
		case r.URL.Path == "/email/" && r.Method == http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "home", body["context"])
			assert.Equal(t, "u@x", body["value"])
			assert.Equal(t, true, body["validated"])
			created = true
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/identity/7/activate/" && r.Method == http.MethodPost:
			activated = true
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := &Syncer{Client: NewClient(srv.URL, nil)}
	user := &repository.User{ID: "u1", Email: "u@x"}
	require.NoError(t, s.ActivateIdentity(context.Background(), user, "7"))
	assert.True(t, created)
	assert.True(t, activated)
}

func TestActivateIdentity_ActivateFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"identity": map[string]any{"id": "7", "@type": "Person", "state": "pending"},
			})
		case r.URL.Path == "/email/":
			w.WriteHeader(http.StatusCreated)
		default:
			http.Error(w, "down", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	s := &Syncer{Client: NewClient(srv.URL, nil)}
	err := s.ActivateIdentity(context.Background(), &repository.User{Email: "u@x"}, "7")
	require.ErrorIs(t, err, ErrServiceFailure)
}

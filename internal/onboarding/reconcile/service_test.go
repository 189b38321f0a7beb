package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/store/memory"
)

func TestReconcile_ExistingIdentityTriggersMerge(t *testing.T) {
	ctx := context.Background()
	var mergePath string
	var mergeBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mergePath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&mergeBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := memory.New()
	user, err := st.Users().Create(ctx, repository.CreateUserInput{Email: "u@x"})
	require.NoError(t, err)
	require.NoError(t, st.Users().BindIdentity(ctx, user.ID, "5"))
	user, _ = st.Users().GetByID(ctx, user.ID)
	require.NoError(t, st.PendingActivations().Create(ctx, repository.PendingActivation{
		ActivationCode: "code-1", IdentityID: "9",
	}))

	s := &Service{IDM: idm.NewClient(srv.URL, nil), Users: st.Users(), Activations: st.PendingActivations()}
	result, err := s.Reconcile(ctx, user, "9", "code-1")
	require.NoError(t, err)
	assert.Equal(t, ResultMerged, result)

	// Claimed identity 9 merges into the existing 5.
	assert.Equal(t, "/identity/5/merge/", mergePath)
	assert.Equal(t, "9", mergeBody["id"])

	// identity_id unchanged, activation consumed.
	got, _ := st.Users().GetByID(ctx, user.ID)
	require.NotNil(t, got.IdentityID)
	assert.Equal(t, "5", *got.IdentityID)
	_, err = st.PendingActivations().Get(ctx, "code-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcile_NoIdentityBindsWithoutMerge(t *testing.T) {
	ctx := context.Background()
	merges := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		merges++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := memory.New()
	user, err := st.Users().Create(ctx, repository.CreateUserInput{Email: "u@x"})
	require.NoError(t, err)
	require.NoError(t, st.PendingActivations().Create(ctx, repository.PendingActivation{
		ActivationCode: "code-1", IdentityID: "9",
	}))

	s := &Service{IDM: idm.NewClient(srv.URL, nil), Users: st.Users(), Activations: st.PendingActivations()}
	result, err := s.Reconcile(ctx, user, "9", "code-1")
	require.NoError(t, err)
	assert.Equal(t, ResultBound, result)
	assert.Zero(t, merges)

	got, _ := st.Users().GetByID(ctx, user.ID)
	require.NotNil(t, got.IdentityID)
	assert.Equal(t, "9", *got.IdentityID)
}

func TestReconcile_MergeFailureLeavesActivationIntact(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	st := memory.New()
	user, err := st.Users().Create(ctx, repository.CreateUserInput{Email: "u@x"})
	require.NoError(t, err)
	require.NoError(t, st.Users().BindIdentity(ctx, user.ID, "5"))
	user, _ = st.Users().GetByID(ctx, user.ID)
	require.NoError(t, st.PendingActivations().Create(ctx, repository.PendingActivation{
		ActivationCode: "code-1", IdentityID: "9",
	}))

	s := &Service{IDM: idm.NewClient(srv.URL, nil), Users: st.Users(), Activations: st.PendingActivations()}
	_, err = s.Reconcile(ctx, user, "9", "code-1")
	require.ErrorIs(t, err, idm.ErrServiceFailure)

	// Retryable: the pending activation survived the failed merge.
	pa, err := st.PendingActivations().Get(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "9", pa.IdentityID)
}

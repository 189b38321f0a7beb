package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/dropDatabas3/onboard/internal/cache/memory"
	"github.com/dropDatabas3/onboard/internal/domain/repository"
	apihttp "github.com/dropDatabas3/onboard/internal/http"
	activationctl "github.com/dropDatabas3/onboard/internal/http/controllers/activation"
	healthctl "github.com/dropDatabas3/onboard/internal/http/controllers/health"
	signupctl "github.com/dropDatabas3/onboard/internal/http/controllers/signup"
	"github.com/dropDatabas3/onboard/internal/http/dto/onboarding"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/onboarding/activation"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
	"github.com/dropDatabas3/onboard/internal/onboarding/reconcile"
	"github.com/dropDatabas3/onboard/internal/onboarding/signup"
	"github.com/dropDatabas3/onboard/internal/onboarding/wizard"
	"github.com/dropDatabas3/onboard/internal/partial"
	"github.com/dropDatabas3/onboard/internal/store/memory"
)

type noopMailer struct{}

func (noopMailer) SendActivationEmail(context.Context, *repository.User) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	st := memory.New()
	kv := cachemem.New("t:")
	runs := wizard.NewStateStore(kv, 0)
	codec := claim.NewCodec("test-secret-test-secret-test-sec", "onboarding.claim")
	idmClient := idm.NewClient("http://idm.invalid", nil)

	signupSvc := signup.NewService(signup.Deps{
		Wizards:     runs,
		Claims:      codec,
		Users:       st.Users(),
		Activations: st.PendingActivations(),
		Partials:    partial.NewStore(kv, 0),
		Mailer:      noopMailer{},
	})
	activationSvc := activation.NewService(activation.Deps{
		Wizards:     runs,
		Claims:      codec,
		IDM:         idmClient,
		Users:       st.Users(),
		Activations: st.PendingActivations(),
		Reconciler: &reconcile.Service{
			IDM:         idmClient,
			Users:       st.Users(),
			Activations: st.PendingActivations(),
		},
	})

	router := apihttp.NewRouter(
		signupctl.New(signupSvc),
		activationctl.New(activationSvc),
		healthctl.New(map[string]healthctl.Pinger{"store": st, "cache": kv}),
	)
	return router, st
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Drives a fresh signup end to end over the wire: start, three step
// submissions with the run header, and the final outcome payload.
func TestRouterSignupFlow(t *testing.T) {
	h, st := newTestRouter(t)

	rec := postJSON(t, h, "/v1/signup/start", map[string]string{}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var started onboarding.RunState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.Run)
	assert.Equal(t, "welcome", started.CurrentStep)

	run := map[string]string{"X-Onboarding-Run": started.Run}
	rec = postJSON(t, h, "/v1/signup/welcome", onboarding.SubmitRequest{}, run)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/v1/signup/personal", onboarding.SubmitRequest{Data: map[string]string{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "ada@example.org",
		"date_of_birth": "1815-12-10",
	}}, run)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/v1/signup/password", onboarding.SubmitRequest{Data: map[string]string{
		"password1": "long-enough-pass",
		"password2": "long-enough-pass",
	}}, run)
	require.Equal(t, http.StatusOK, rec.Code)

	var res onboarding.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Done)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, "fresh", res.Outcome.Mode)

	user, err := st.Users().GetByID(context.Background(), res.Outcome.UserID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestRouterSignupRejectsAuthenticated(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/v1/signup/start", map[string]string{}, map[string]string{"X-User-ID": "u-1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_authenticated")
}

func TestRouterValidationErrorCarriesField(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := postJSON(t, h, "/v1/signup/start", map[string]string{}, nil)
	var started onboarding.RunState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	run := map[string]string{"X-Onboarding-Run": started.Run}

	postJSON(t, h, "/v1/signup/welcome", onboarding.SubmitRequest{}, run)
	rec = postJSON(t, h, "/v1/signup/personal", onboarding.SubmitRequest{Data: map[string]string{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "not-an-email",
		"date_of_birth": "1815-12-10",
	}}, run)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_field")
	assert.Contains(t, rec.Body.String(), `"field":"email"`)
}

func TestRouterUnknownRun(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/signup/personal?run=nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run_not_found")
}

func TestRouterProbes(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

package partial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/dropDatabas3/onboard/internal/cache/memory"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cachemem.New("t:"), 0)

	p := &Partial{
		Token:   "tok-1",
		Backend: "saml",
		Details: map[string]string{"first_name": "Ada"},
		Kwargs:  map[string]any{"user_details_confirmed": true},
	}
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "saml", got.Backend)
	assert.Equal(t, "Ada", got.Details["first_name"])
	assert.Equal(t, true, got.Kwargs["user_details_confirmed"])

	require.NoError(t, s.Delete(ctx, "tok-1"))
	_, err = s.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	s := NewStore(cachemem.New("t:"), 0)
	assert.Error(t, s.Save(context.Background(), &Partial{}))
}

func TestIdPName(t *testing.T) {
	p := &Partial{Kwargs: map[string]any{
		"response": map[string]any{"idp_name": "corp-idp"},
	}}
	assert.Equal(t, "corp-idp", p.IdPName())

	assert.Empty(t, (&Partial{}).IdPName())
}

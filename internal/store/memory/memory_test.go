package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

func TestPendingActivationCreateDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	st := New()

	require.NoError(t, st.PendingActivations().Create(ctx, repository.PendingActivation{
		ActivationCode: "code-1", IdentityID: "9",
	}))

	pa, err := st.PendingActivations().Get(ctx, "code-1")
	require.NoError(t, err)
	assert.False(t, pa.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), pa.CreatedAt, time.Minute)
}

func TestPendingActivationConsumeIsDestructive(t *testing.T) {
	ctx := context.Background()
	st := New()

	require.NoError(t, st.PendingActivations().Create(ctx, repository.PendingActivation{
		ActivationCode: "code-1", IdentityID: "9",
	}))
	require.NoError(t, st.PendingActivations().Consume(ctx, "code-1"))
	assert.ErrorIs(t, st.PendingActivations().Consume(ctx, "code-1"), repository.ErrNotFound)
}

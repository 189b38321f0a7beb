package onboarding

import (
	"context"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
)

// Activator redeems emailed activation keys: the signed link a fresh signup
// follows to activate the account it just created.
type Activator struct {
	// Keys verifies the signed key; its subject is the user ID.
	Keys   *claim.Codec
	Users  repository.UserRepository
	Syncer *idm.Syncer
}

// RedeemKey verifies the key and activates the user. When an identity is
// bound, the IDM core is told first: email validation and identity
// activation must succeed before the local record flips, so a failed
// external call leaves the key redeemable for a retry. The profile refresh
// afterwards is best effort.
func (a *Activator) RedeemKey(ctx context.Context, key string) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("onboarding"), logger.Op("RedeemKey"))

	userID, err := a.Keys.Redeem(key)
	if err != nil {
		return nil, err
	}
	user, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UserID(user.ID))

	if user.IdentityID != nil {
		if err := a.Syncer.ActivateIdentity(ctx, user, *user.IdentityID); err != nil {
			log.Warn("identity activation failed", logger.Err(err))
			return nil, err
		}
	}

	if err := a.Users.Activate(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsActive = true

	if user.IdentityID != nil {
		if err := a.Syncer.SyncUser(ctx, user, nil); err != nil {
			log.Warn("profile refresh after activation failed", logger.Err(err))
		}
	}

	log.Info("account activated")
	return user, nil
}

// Package reconcile decides what claiming an identity means for the acting
// user: bind it when the user has none, merge at the IDM core when the user
// already has one.
package reconcile

import (
	"context"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
)

// Result reports which branch ran.
type Result string

const (
	// ResultBound means the claimed identity was attached to the user.
	ResultBound Result = "bound"
	// ResultMerged means the claimed identity was merged into the user's
	// existing one at the IDM core.
	ResultMerged Result = "merged"
)

// Service reconciles claimed identities against the acting user.
type Service struct {
	IDM         *idm.Client
	Users       repository.UserRepository
	Activations repository.PendingActivationRepository
}

// Reconcile binds or merges, then consumes the pending activation. Order
// matters: the external merge runs first, so an IDM failure aborts before
// any local mutation and the activation stays redeemable for a retry.
//
// Merge direction is fixed and explicit: the claimed identity is absorbed
// into the user's existing one; user.IdentityID never changes on that path.
func (s *Service) Reconcile(ctx context.Context, user *repository.User, claimedIdentityID, activationCode string) (Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("reconcile"),
		logger.UserID(user.ID),
		logger.IdentityID(claimedIdentityID),
	)

	result := ResultBound
	if user.IdentityID != nil {
		if err := s.IDM.Merge(ctx, *user.IdentityID, claimedIdentityID); err != nil {
			log.Warn("identity merge failed", logger.Err(err))
			return "", err
		}
		result = ResultMerged
	} else {
		if err := s.Users.BindIdentity(ctx, user.ID, claimedIdentityID); err != nil {
			log.Error("identity bind failed", logger.Err(err))
			return "", err
		}
		user.IdentityID = &claimedIdentityID
	}

	if err := s.Activations.Consume(ctx, activationCode); err != nil {
		// The reconciliation itself is done; a lost race on the delete
		// just means another finalize got there first.
		log.Warn("pending activation already consumed", logger.Err(err))
	}

	log.Info("identity reconciled", logger.String("result", string(result)))
	return result, nil
}

package idm

import (
	"context"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

// ActivateIdentity tells the IDM core the user's email address is validated
// and activates the identity record. Two steps:
//
//  1. if the identity already knows the address, patch it validated;
//     otherwise create a new validated "home" email record
//  2. post the activation
//
// Either call failing aborts with ErrServiceFailure so callers do not end up
// with a half-activated identity marked done locally.
func (s *Syncer) ActivateIdentity(ctx context.Context, user *repository.User, identityID string) error {
	identity, err := s.Client.GetIdentity(ctx, identityID)
	if err != nil {
		return err
	}

	known := false
	for _, email := range identity.Emails {
		if email.Value == user.Email {
			if err := s.Client.ValidateEmail(ctx, email.URL); err != nil {
				return err
			}
			known = true
			break
		}
	}
	if !known {
		if err := s.Client.CreateEmail(ctx, identityID, ContextHome, user.Email); err != nil {
			return err
		}
	}

	return s.Client.Activate(ctx, identityID)
}

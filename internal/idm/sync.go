package idm

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
)

// Syncer refreshes local user profiles from IDM identity data.
type Syncer struct {
	Client *Client
	Users  repository.UserRepository
}

// SyncUser maps identity data onto the user and persists the result. When
// identity is nil it is fetched first; the user must have an identity bound.
func (s *Syncer) SyncUser(ctx context.Context, user *repository.User, identity *Identity) error {
	if identity == nil {
		if user.IdentityID == nil {
			return fmt.Errorf("idm: user %s has no identity to sync from", user.ID)
		}
		var err error
		identity, err = s.Client.GetIdentity(ctx, *user.IdentityID)
		if err != nil {
			return err
		}
	}

	first, last := namesFromIdentity(identity)
	email := emailFromIdentity(identity)

	user.State = identity.State
	user.IdentityType = identity.Type
	user.FirstName = first
	user.LastName = last
	user.Email = email

	return s.Users.Update(ctx, user.ID, repository.UpdateUserInput{
		IdentityType: &identity.Type,
		State:        &identity.State,
		FirstName:    &first,
		LastName:     &last,
		Email:        &email,
	})
}

func namesFromIdentity(identity *Identity) (first, last string) {
	if identity.Type == TypePerson {
		if identity.PrimaryName != nil {
			return identity.PrimaryName.First, identity.PrimaryName.Last
		}
		return "", ""
	}
	// Non-person identities carry their label as the surname.
	return "", identity.Label
}

// emailFromIdentity picks the address to sync. Established identities take
// the first home address anywhere in the sequence, validated or not, before
// any validated one is considered; otherwise the first validated address
// wins; failing both, blank.
func emailFromIdentity(identity *Identity) string {
	if identity.State == StateEstablished {
		for _, email := range identity.Emails {
			if email.Context == ContextHome {
				return email.Value
			}
		}
	}
	for _, email := range identity.Emails {
		if email.Validated {
			return email.Value
		}
	}
	return ""
}

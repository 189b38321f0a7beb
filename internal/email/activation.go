package email

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
)

// KeyPurpose scopes the signed activation keys apart from signup claim
// tokens under the same secret.
const KeyPurpose = "onboarding.verify"

// DefaultKeyMaxAge bounds how long an emailed activation key stays valid.
const DefaultKeyMaxAge = 72 * time.Hour

// ActivationMailer composes and sends the activation email: a link carrying
// a signed key whose subject is the user ID.
type ActivationMailer struct {
	Sender    Sender
	Keys      *claim.Codec
	Templates *Templates

	// BaseURL is the public origin of this service; the activation link is
	// BaseURL + ActivatePath + "?key=...".
	BaseURL      string
	ActivatePath string

	Subject string
	TTL     time.Duration
}

// NewActivationMailer wires a mailer with the default path, subject and key
// lifetime. secret signs the keys.
func NewActivationMailer(sender Sender, secret, baseURL string) *ActivationMailer {
	return &ActivationMailer{
		Sender:       sender,
		Keys:         claim.NewCodec(secret, KeyPurpose, claim.WithMaxAge(DefaultKeyMaxAge)),
		Templates:    DefaultTemplates(),
		BaseURL:      baseURL,
		ActivatePath: "/v1/onboarding/activate",
		Subject:      "Activate your account",
		TTL:          DefaultKeyMaxAge,
	}
}

// SendActivationEmail issues a fresh key for the user and mails the link.
func (m *ActivationMailer) SendActivationEmail(ctx context.Context, user *repository.User) error {
	log := logger.From(ctx).With(logger.Component("email"), logger.Op("SendActivationEmail"), logger.UserID(user.ID))

	if user.Email == "" {
		return fmt.Errorf("email: user %s has no address to mail", user.ID)
	}
	key, err := m.Keys.Issue(user.ID)
	if err != nil {
		return err
	}
	link := m.BaseURL + m.ActivatePath + "?" + (url.Values{"key": {key}}).Encode()

	htmlBody, textBody, err := m.Templates.render(ActivationVars{
		FirstName: user.FirstName,
		Email:     user.Email,
		Link:      link,
		TTL:       m.TTL.String(),
	})
	if err != nil {
		return err
	}
	if err := m.Sender.Send(user.Email, m.Subject, htmlBody, textBody); err != nil {
		return err
	}
	log.Info("activation email sent")
	return nil
}

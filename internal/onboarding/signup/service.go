// Package signup drives the new-account wizard: welcome and personal-data
// steps for fresh signups, claim-driven account materialization when the
// caller arrives from the activation flow, and resumption of interrupted
// social-login pipelines.
package signup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/metrics"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	"github.com/dropDatabas3/onboard/internal/onboarding"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
	"github.com/dropDatabas3/onboard/internal/onboarding/wizard"
	"github.com/dropDatabas3/onboard/internal/partial"
	"github.com/dropDatabas3/onboard/internal/security/password"
	"github.com/dropDatabas3/onboard/internal/validation"
)

// Step names.
const (
	StepWelcome  = "welcome"
	StepPersonal = "personal"
	StepPassword = "password"
)

// Run-context keys. Facts resolved at Start that predicates and finalize
// read back later.
const (
	ctxClaimCode    = "claim_code"
	ctxIdentityID   = "identity_id"
	ctxPartialToken = "partial_token"
	ctxRedirectTo   = "redirect_to"

	// ctxNeedsEmailConfirm makes the send-activation-email decision an
	// explicit flag instead of inferring it from which steps happened to
	// run: social-driven signups confirm through the provider instead.
	ctxNeedsEmailConfirm = "needs_email_confirm"
)

// ActivationMailer sends the account activation email.
type ActivationMailer interface {
	SendActivationEmail(ctx context.Context, user *repository.User) error
}

// Routes are the URLs the flow redirects through. SocialBegin and
// SocialComplete are printf patterns taking the backend id.
type Routes struct {
	Done           string
	SocialBegin    string
	SocialComplete string
}

// DefaultRoutes matches the router in internal/http.
var DefaultRoutes = Routes{
	Done:           "/v1/signup/done",
	SocialBegin:    "/v1/social/begin/%s/",
	SocialComplete: "/v1/social/complete/%s/",
}

// Deps wires the signup service.
type Deps struct {
	Wizards          *wizard.StateStore
	Claims           *claim.Codec
	Users            repository.UserRepository
	Activations      repository.PendingActivationRepository
	Partials         *partial.Store
	Mailer           ActivationMailer
	RegistrationOpen func() bool
	Routes           Routes
}

// Service is the signup state machine.
type Service struct {
	deps   Deps
	engine *wizard.Engine
}

// NewService builds the flow definition on the step engine.
func NewService(deps Deps) *Service {
	if deps.Routes == (Routes{}) {
		deps.Routes = DefaultRoutes
	}
	if deps.RegistrationOpen == nil {
		deps.RegistrationOpen = func() bool { return true }
	}
	s := &Service{deps: deps}
	s.engine = wizard.New("signup", []wizard.Step{
		{
			Name:   StepWelcome,
			Active: func(r *wizard.Run) bool { return r.Ctx(ctxClaimCode) == "" },
		},
		{
			Name:     StepPersonal,
			Active:   func(r *wizard.Run) bool { return r.Ctx(ctxClaimCode) == "" },
			Validate: validatePersonal,
		},
		{
			Name:     StepPassword,
			Active:   func(r *wizard.Run) bool { return r.Ctx(ctxPartialToken) == "" },
			Validate: validatePassword,
		},
	}, deps.Wizards)
	return s
}

func validatePersonal(_ *wizard.Run, data map[string]string) error {
	if !validation.ValidName(data["first_name"]) {
		return &wizard.ValidationError{Field: "first_name", Reason: "required"}
	}
	if !validation.ValidName(data["last_name"]) {
		return &wizard.ValidationError{Field: "last_name", Reason: "required"}
	}
	if !validation.ValidEmail(data["email"]) {
		return &wizard.ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if !validation.ValidDate(data["date_of_birth"]) {
		return &wizard.ValidationError{Field: "date_of_birth", Reason: "expected YYYY-MM-DD"}
	}
	return nil
}

func validatePassword(_ *wizard.Run, data map[string]string) error {
	if !validation.ValidPassword(data["password1"]) {
		return &wizard.ValidationError{Field: "password1",
			Reason: fmt.Sprintf("at least %d characters", validation.MinPasswordLength)}
	}
	if data["password1"] != data["password2"] {
		return &wizard.ValidationError{Field: "password2", Reason: "passwords do not match"}
	}
	return nil
}

// StartInput describes the incoming request that opens the flow.
type StartInput struct {
	// Authenticated marks a session that already belongs to a user; such
	// callers are rejected outright.
	Authenticated bool

	// ClaimToken is the signed hand-off from the activation flow, if any.
	ClaimToken string

	// PartialToken identifies an interrupted social-login pipeline, if
	// any (carried in the caller's session by the HTTP layer).
	PartialToken string

	// RedirectTo is where the caller ultimately wants to land.
	RedirectTo string
}

// StartResult is the opened run.
type StartResult struct {
	Run         *wizard.Run
	CurrentStep string

	// ClaimInvalid is set when a claim token was presented but did not
	// verify or resolve; the flow continues as a fresh signup.
	ClaimInvalid bool

	// Outcome is set when the run had no active steps at all (claim plus
	// social partial) and finalized immediately.
	Outcome *Outcome
}

// Start opens a signup run, applying the entry guards and resolving the
// claim and partial references.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("signup"), logger.Op("Start"))

	if in.Authenticated {
		return nil, onboarding.ErrAlreadyAuthenticated
	}

	claimCode, identityID, claimInvalid := s.resolveClaim(ctx, in.ClaimToken)

	if !s.deps.RegistrationOpen() && claimCode == "" {
		log.Info("registration closed, no claim presented")
		return nil, onboarding.ErrRegistrationClosed
	}

	partialToken := ""
	if in.PartialToken != "" {
		if _, err := s.deps.Partials.Get(ctx, in.PartialToken); err == nil {
			partialToken = in.PartialToken
		} else {
			log.Debug("stale partial token ignored", logger.Err(err))
		}
	}

	needsEmailConfirm := "1"
	if partialToken != "" {
		// The provider confirmed the address; completion of the social
		// pipeline implies activation.
		needsEmailConfirm = ""
	}

	run, err := s.engine.Start(ctx, map[string]string{
		ctxClaimCode:         claimCode,
		ctxIdentityID:        identityID,
		ctxPartialToken:      partialToken,
		ctxRedirectTo:        in.RedirectTo,
		ctxNeedsEmailConfirm: needsEmailConfirm,
	})
	if err != nil {
		return nil, err
	}

	result := &StartResult{Run: run, ClaimInvalid: claimInvalid}
	current, ok := s.engine.Current(run)
	if !ok {
		// Claim plus social partial leaves no step to show; finalize now.
		err = s.engine.Finalize(ctx, run, func(run *wizard.Run) error {
			var ferr error
			result.Outcome, ferr = s.finalize(ctx, run)
			return ferr
		})
		if err != nil {
			return nil, err
		}
	}
	result.CurrentStep = current

	log.Info("signup run opened",
		logger.RunID(run.ID),
		logger.Bool("claim", claimCode != ""),
		logger.Bool("social", partialToken != ""),
	)
	return result, nil
}

// resolveClaim redeems the token and looks up the pending activation. Any
// failure degrades to a fresh signup with the generic invalid flag; tampered
// and expired tokens are indistinguishable to the caller.
func (s *Service) resolveClaim(ctx context.Context, token string) (code, identityID string, invalid bool) {
	if token == "" {
		return "", "", false
	}
	log := logger.From(ctx).With(logger.Component("signup"), logger.Op("resolveClaim"))

	code, err := s.deps.Claims.Redeem(token)
	if err != nil {
		metrics.ClaimRedemptions.WithLabelValues("invalid").Inc()
		log.Info("claim token rejected")
		return "", "", true
	}
	pa, err := s.deps.Activations.Get(ctx, code)
	if err != nil {
		metrics.ClaimRedemptions.WithLabelValues("invalid").Inc()
		log.Info("claim resolved to no live pending activation")
		return "", "", true
	}
	metrics.ClaimRedemptions.WithLabelValues("ok").Inc()
	return pa.ActivationCode, pa.IdentityID, false
}

// State describes a run to the HTTP layer: current step, the steps that
// apply, and any prefill for the current step.
type State struct {
	Run         *wizard.Run
	CurrentStep string
	ActiveSteps []string
	Initial     map[string]string
}

// Describe loads a run and reports its navigation state.
func (s *Service) Describe(ctx context.Context, runID string) (*State, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	current, _ := s.engine.Current(run)
	return &State{
		Run:         run,
		CurrentStep: current,
		ActiveSteps: s.engine.ActiveSteps(run),
		Initial:     s.initialData(ctx, run, current),
	}, nil
}

// initialData prefills the personal step from an in-progress social pipeline,
// the way the provider reported the profile.
func (s *Service) initialData(ctx context.Context, run *wizard.Run, step string) map[string]string {
	if step != StepPersonal || run.Ctx(ctxPartialToken) == "" {
		return nil
	}
	p, err := s.deps.Partials.Get(ctx, run.Ctx(ctxPartialToken))
	if err != nil {
		return nil
	}
	initial := map[string]string{}
	for _, k := range []string{"first_name", "last_name", "email"} {
		initial[k] = p.Details[k]
	}
	return initial
}

// Outcome is the result of a completed signup.
type Outcome struct {
	UserID string

	// RedirectTo is the collapsed redirect chain the caller should follow:
	// straight to the done page for plain signups, through the social
	// pipeline for resumed ones.
	RedirectTo string

	// Mode is "fresh", "claim" or "social".
	Mode string
}

// SubmitResult reports a step submission.
type SubmitResult struct {
	Next    string
	Done    bool
	Outcome *Outcome
}

// Submit captures one step's data; when the last active step completes it
// finalizes the run and returns the outcome.
func (s *Service) Submit(ctx context.Context, runID, step string, data map[string]string) (*SubmitResult, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	next, done, err := s.engine.Submit(ctx, run, step, data)
	if errors.Is(err, wizard.ErrStepNotCurrent) && !run.Finalized {
		// The step was captured on an earlier attempt whose finalize failed;
		// resubmitting retries the finalize.
		if _, ok := s.engine.Current(run); !ok {
			done, err = true, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if !done {
		return &SubmitResult{Next: next}, nil
	}

	var outcome *Outcome
	err = s.engine.Finalize(ctx, run, func(run *wizard.Run) error {
		var ferr error
		outcome, ferr = s.finalize(ctx, run)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Done: true, Outcome: outcome}, nil
}

func (s *Service) finalize(ctx context.Context, run *wizard.Run) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"), logger.Component("signup"), logger.Op("finalize"),
		logger.RunID(run.ID),
	)

	chain := []string{s.deps.Routes.Done}
	if rt := run.Ctx(ctxRedirectTo); rt != "" {
		chain = append(chain, rt)
	}

	input, mode, err := s.buildUser(ctx, run)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Users.Create(ctx, input)
	if err != nil {
		log.Error("user creation failed", logger.Err(err))
		return nil, err
	}
	log = log.With(logger.UserID(user.ID))

	if run.Ctx(ctxNeedsEmailConfirm) == "1" {
		// Soft fail: the account exists, the key can be re-sent.
		if err := s.deps.Mailer.SendActivationEmail(ctx, user); err != nil {
			log.Warn("activation email failed", logger.Err(err))
		}
	}

	if token := run.Ctx(ctxPartialToken); token != "" {
		chain, err = s.resumeSocial(ctx, run, user, token, chain)
		if err != nil {
			// The pipeline is gone; the account still exists, so fall
			// back to email confirmation rather than stranding it.
			log.Warn("social resume failed, falling back to email confirmation", logger.Err(err))
			if mailErr := s.deps.Mailer.SendActivationEmail(ctx, user); mailErr != nil {
				log.Warn("fallback activation email failed", logger.Err(mailErr))
			}
		} else {
			mode = "social"
		}
	}

	metrics.SignupsCompleted.WithLabelValues(mode).Inc()
	log.Info("signup complete", logger.String("mode", mode))

	return &Outcome{
		UserID:     user.ID,
		RedirectTo: CollapseRedirectChain(chain, RedirectParam),
		Mode:       mode,
	}, nil
}

// buildUser assembles the account to create: claim-driven runs materialize
// the pre-provisioned identity, fresh runs use the collected personal data.
func (s *Service) buildUser(ctx context.Context, run *wizard.Run) (repository.CreateUserInput, string, error) {
	var input repository.CreateUserInput
	mode := "fresh"

	if code := run.Ctx(ctxClaimCode); code != "" {
		// Redemption is destructive; losing the race here means another
		// finalize already claimed this identity.
		if err := s.deps.Activations.Consume(ctx, code); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return input, "", onboarding.ErrUnknownPendingActivation
			}
			return input, "", err
		}
		identityID := run.Ctx(ctxIdentityID)
		input = repository.CreateUserInput{
			IdentityID: &identityID,
			Primary:    true,
		}
		mode = "claim"
	} else {
		personal := run.StepData(StepPersonal)
		input = repository.CreateUserInput{
			Primary:     true,
			FirstName:   personal["first_name"],
			LastName:    personal["last_name"],
			Email:       personal["email"],
			DateOfBirth: personal["date_of_birth"],
		}
	}

	if pw := run.Field(StepPassword, "password1"); pw != "" {
		phc, err := password.Hash(password.Default, pw)
		if err != nil {
			return input, "", err
		}
		input.PasswordHash = &phc
	}
	return input, mode, nil
}

// resumeSocial pushes the collected details back into the paused pipeline
// and threads the redirect chain through social begin/complete.
func (s *Service) resumeSocial(ctx context.Context, run *wizard.Run, user *repository.User, token string, chain []string) ([]string, error) {
	p, err := s.deps.Partials.Get(ctx, token)
	if err != nil {
		return chain, err
	}

	if p.Details == nil {
		p.Details = map[string]string{}
	}
	p.Details["first_name"] = user.FirstName
	p.Details["last_name"] = user.LastName
	p.Details["email"] = user.Email
	p.Details["date_of_birth"] = user.DateOfBirth
	if p.Kwargs == nil {
		p.Kwargs = map[string]any{}
	}
	p.Kwargs["user"] = user.ID
	p.Kwargs["user_details_confirmed"] = true

	if err := s.deps.Partials.Save(ctx, p); err != nil {
		return chain, err
	}

	beginURL := fmt.Sprintf(s.deps.Routes.SocialBegin, p.Backend)
	if p.Backend == "saml" {
		if idp := p.IdPName(); idp != "" {
			beginURL += "?" + (url.Values{"idp": {idp}}).Encode()
		}
	}

	chain = slices.Insert(chain, 0, fmt.Sprintf(s.deps.Routes.SocialComplete, p.Backend))
	chain = slices.Insert(chain, 2, beginURL)
	return chain, nil
}

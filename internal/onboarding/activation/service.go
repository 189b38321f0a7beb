// Package activation drives the claim wizard: a person holding an activation
// code confirms the pre-provisioned identity behind it, then either hands off
// to signup with a claim token or, when already logged in, reconciles the
// identity onto their account directly.
package activation

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/metrics"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	"github.com/dropDatabas3/onboard/internal/onboarding"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
	"github.com/dropDatabas3/onboard/internal/onboarding/reconcile"
	"github.com/dropDatabas3/onboard/internal/onboarding/wizard"
)

// Step names.
const (
	StepCode     = "activation-code"
	StepDetails  = "confirm-details"
	StepExisting = "existing-account"
	StepConfirm  = "confirm"
)

// Run-context keys.
const (
	ctxUserID         = "user_id"
	ctxActivationCode = "activation_code"
	ctxIdentityID     = "identity_id"
)

// Routes are the URLs the flow redirects through. Resume is a printf pattern
// taking the run ID; it is where login sends the caller back to.
type Routes struct {
	Login  string
	Signup string
	Done   string
	Resume string
}

// DefaultRoutes matches the router in internal/http.
var DefaultRoutes = Routes{
	Login:  "/v1/login",
	Signup: "/v1/signup/start",
	Done:   "/v1/activation/done",
	Resume: "/v1/activation/confirm?run=%s",
}

// Deps wires the activation service.
type Deps struct {
	Wizards     *wizard.StateStore
	Claims      *claim.Codec
	IDM         *idm.Client
	Users       repository.UserRepository
	Activations repository.PendingActivationRepository
	Reconciler  *reconcile.Service
	Routes      Routes
}

// Service is the activation state machine.
type Service struct {
	deps   Deps
	engine *wizard.Engine
}

// NewService builds the flow definition on the step engine.
func NewService(deps Deps) *Service {
	if deps.Routes == (Routes{}) {
		deps.Routes = DefaultRoutes
	}
	s := &Service{deps: deps}
	s.engine = wizard.New("activation", []wizard.Step{
		{
			Name:     StepCode,
			Validate: validateCode,
		},
		{
			Name: StepDetails,
		},
		{
			Name:     StepExisting,
			Active:   func(r *wizard.Run) bool { return r.Ctx(ctxUserID) == "" },
			Validate: validateExisting,
		},
		{
			Name: StepConfirm,
		},
	}, deps.Wizards)
	return s
}

func validateCode(_ *wizard.Run, data map[string]string) error {
	if data["activation_code"] == "" {
		return &wizard.ValidationError{Field: "activation_code", Reason: "required"}
	}
	return nil
}

func validateExisting(_ *wizard.Run, data map[string]string) error {
	if v := data["existing_account"]; v != "true" && v != "false" {
		return &wizard.ValidationError{Field: "existing_account", Reason: "expected true or false"}
	}
	return nil
}

// StartInput describes the incoming request that opens the flow.
type StartInput struct {
	// UserID is the acting session's user, empty when unauthenticated.
	UserID string

	// ActivationCode short-circuits the first step when carried as a query
	// parameter on the entry URL.
	ActivationCode string
}

// StartResult is the opened run.
type StartResult struct {
	Run         *wizard.Run
	CurrentStep string

	// CodeError is set when a query-parameter activation code did not
	// resolve; the run stays on the first step with this field error.
	CodeError *wizard.ValidationError
}

// Start opens an activation run. A query-parameter code is submitted as the
// first step immediately; an unknown code keeps the run on step one with a
// field error rather than silently advancing.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("activation"), logger.Op("Start"))

	run, err := s.engine.Start(ctx, map[string]string{ctxUserID: in.UserID})
	if err != nil {
		return nil, err
	}
	result := &StartResult{Run: run}

	if in.ActivationCode != "" {
		_, _, err := s.submitCode(ctx, run, map[string]string{"activation_code": in.ActivationCode})
		var verr *wizard.ValidationError
		switch {
		case errors.As(err, &verr):
			result.CodeError = verr
		case err != nil:
			return nil, err
		}
	}

	result.CurrentStep, _ = s.engine.Current(run)
	log.Info("activation run opened",
		logger.RunID(run.ID),
		logger.Bool("authenticated", in.UserID != ""),
		logger.Bool("code_supplied", in.ActivationCode != ""),
	)
	return result, nil
}

// submitCode resolves the code against live pending activations before the
// engine accepts the step, and stashes the referenced identity on the run.
func (s *Service) submitCode(ctx context.Context, run *wizard.Run, data map[string]string) (string, bool, error) {
	code := data["activation_code"]
	if code != "" {
		pa, err := s.deps.Activations.Get(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, &wizard.ValidationError{Field: "activation_code", Reason: "unknown or already used"}
		}
		if err != nil {
			return "", false, err
		}
		run.SetCtx(ctxActivationCode, pa.ActivationCode)
		run.SetCtx(ctxIdentityID, pa.IdentityID)
	}
	return s.engine.Submit(ctx, run, StepCode, data)
}

// State describes a run to the HTTP layer. Identity carries the record behind
// the activation code once step one is done, for the confirm-details render.
type State struct {
	Run         *wizard.Run
	CurrentStep string
	ActiveSteps []string
	Identity    *idm.Identity

	// CodeError is set by ApplyCode when the arriving code did not resolve.
	CodeError *wizard.ValidationError
}

// Describe loads a run and reports its navigation state.
func (s *Service) Describe(ctx context.Context, runID string) (*State, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	state := &State{
		Run:         run,
		ActiveSteps: s.engine.ActiveSteps(run),
	}
	state.CurrentStep, _ = s.engine.Current(run)

	if id := run.Ctx(ctxIdentityID); id != "" {
		identity, err := s.deps.IDM.GetIdentity(ctx, id)
		if err != nil {
			return nil, err
		}
		state.Identity = identity
	}
	return state, nil
}

// ApplyCode handles an activation code arriving on a query parameter after
// the run already advanced: the run is repositioned at the code step and the
// new code is submitted in place, discarding everything captured from there
// on. An unknown code leaves the run on the code step with a field error,
// like Start.
func (s *Service) ApplyCode(ctx context.Context, runID, userID, code string) (*State, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if userID != "" {
		run.SetCtx(ctxUserID, userID)
	}
	// Drop the previously stashed identity so a rejected code cannot render
	// the record behind the old one.
	run.SetCtx(ctxActivationCode, "")
	run.SetCtx(ctxIdentityID, "")
	if err := s.engine.Goto(ctx, run, StepCode); err != nil {
		return nil, err
	}

	var codeErr *wizard.ValidationError
	if _, _, err := s.submitCode(ctx, run, map[string]string{"activation_code": code}); err != nil {
		if !errors.As(err, &codeErr) {
			return nil, err
		}
	}
	logger.From(ctx).Info("activation code applied mid-flow",
		logger.Component("activation"), logger.RunID(runID), logger.Bool("accepted", codeErr == nil))

	state, err := s.Describe(ctx, runID)
	if err != nil {
		return nil, err
	}
	state.CodeError = codeErr
	return state, nil
}

// Attach records the user on a run whose caller logged in mid-flow and came
// back. The existing-account step drops out of the schedule from here on.
func (s *Service) Attach(ctx context.Context, runID, userID string) (*State, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.SetCtx(ctxUserID, userID)
	if err := s.engine.Save(ctx, run); err != nil {
		return nil, err
	}
	logger.From(ctx).Info("activation run attached to user",
		logger.Component("activation"), logger.RunID(runID), logger.UserID(userID))
	return s.Describe(ctx, runID)
}

// Outcome is the result of a completed activation.
type Outcome struct {
	// Result is "bound" or "merged" for reconciled runs, "handoff" when the
	// run redirected into signup with a claim token.
	Result string

	RedirectTo string
}

// SubmitResult reports a step submission.
type SubmitResult struct {
	Next string
	Done bool

	// RedirectTo interrupts the flow without finalizing it: the caller who
	// reports an existing account is sent to login and returns via Attach.
	RedirectTo string

	Outcome *Outcome
}

// Submit captures one step's data; completing the last step finalizes the run.
func (s *Service) Submit(ctx context.Context, runID, step string, data map[string]string) (*SubmitResult, error) {
	run, err := s.engine.Load(ctx, runID)
	if err != nil {
		return nil, err
	}

	if step == StepConfirm && s.wantsLogin(run) {
		// Confirm is reserved for a logged-in session on this branch; the
		// run stays open so the caller can come back through Attach.
		return &SubmitResult{Next: StepConfirm, RedirectTo: s.loginURL(run)}, nil
	}

	var next string
	var done bool
	if step == StepCode {
		next, done, err = s.submitCode(ctx, run, data)
	} else {
		next, done, err = s.engine.Submit(ctx, run, step, data)
	}
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

	if step == StepExisting && data["existing_account"] == "true" {
		return &SubmitResult{Next: next, RedirectTo: s.loginURL(run)}, nil
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

// wantsLogin reports whether an unauthenticated caller said they already have
// an account and still owes us a login.
func (s *Service) wantsLogin(run *wizard.Run) bool {
	return run.Ctx(ctxUserID) == "" && run.Field(StepExisting, "existing_account") == "true"
}

func (s *Service) loginURL(run *wizard.Run) string {
	resume := fmt.Sprintf(s.deps.Routes.Resume, run.ID)
	return s.deps.Routes.Login + "?" + (url.Values{"next": {resume}}).Encode()
}

// finalize completes the run. Authenticated callers reconcile on the spot;
// everyone else gets a claim token and a redirect into signup. The pending
// activation survives any external failure here, so finalize is retryable.
func (s *Service) finalize(ctx context.Context, run *wizard.Run) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"), logger.Component("activation"), logger.Op("finalize"),
		logger.RunID(run.ID),
	)
	code := run.Ctx(ctxActivationCode)

	userID := run.Ctx(ctxUserID)
	if userID == "" {
		token, err := s.deps.Claims.Issue(code)
		if err != nil {
			return nil, err
		}
		metrics.ActivationsCompleted.WithLabelValues("handoff").Inc()
		log.Info("activation handed off to signup")
		return &Outcome{
			Result:     "handoff",
			RedirectTo: s.deps.Routes.Signup + "?" + (url.Values{"claim": {token}}).Encode(),
		}, nil
	}

	// Re-read rather than trusting the identity stashed at step one; another
	// session may have consumed the code since.
	pa, err := s.deps.Activations.Get(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, onboarding.ErrUnknownPendingActivation
	}
	if err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.deps.Reconciler.Reconcile(ctx, user, pa.IdentityID, code)
	if err != nil {
		return nil, err
	}
	metrics.ActivationsCompleted.WithLabelValues(string(result)).Inc()
	log.Info("activation reconciled", logger.UserID(userID), logger.String("result", string(result)))

	return &Outcome{Result: string(result), RedirectTo: s.deps.Routes.Done}, nil
}

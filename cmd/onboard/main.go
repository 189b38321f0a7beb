// onboard is the account onboarding service: signup and activation wizards
// against the IDM core.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/onboard/internal/cache"
	cachemem "github.com/dropDatabas3/onboard/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/onboard/internal/cache/redis"
	"github.com/dropDatabas3/onboard/internal/config"
	"github.com/dropDatabas3/onboard/internal/email"
	httpserver "github.com/dropDatabas3/onboard/internal/http"
	activationctl "github.com/dropDatabas3/onboard/internal/http/controllers/activation"
	healthctl "github.com/dropDatabas3/onboard/internal/http/controllers/health"
	onboardingctl "github.com/dropDatabas3/onboard/internal/http/controllers/onboarding"
	signupctl "github.com/dropDatabas3/onboard/internal/http/controllers/signup"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/metrics"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	"github.com/dropDatabas3/onboard/internal/onboarding"
	"github.com/dropDatabas3/onboard/internal/onboarding/activation"
	"github.com/dropDatabas3/onboard/internal/onboarding/claim"
	"github.com/dropDatabas3/onboard/internal/onboarding/reconcile"
	"github.com/dropDatabas3/onboard/internal/onboarding/signup"
	"github.com/dropDatabas3/onboard/internal/onboarding/wizard"
	"github.com/dropDatabas3/onboard/internal/partial"
	"github.com/dropDatabas3/onboard/internal/store"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "onboard",
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, store.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		logger.With(logger.Err(err)).Fatal("store init failed")
	}
	defer st.Close()

	var kv cache.Client
	if cfg.Cache.Kind == "redis" {
		kv = cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
	} else {
		kv = cachemem.New("onboard:")
	}
	defer kv.Close()

	if err := metrics.Register(nil); err != nil {
		logger.With(logger.Err(err)).Fatal("metrics registration failed")
	}

	idmClient := idm.NewClient(cfg.IDM.BaseURL, &http.Client{Timeout: cfg.IDM.Timeout})
	syncer := &idm.Syncer{Client: idmClient, Users: st.Users()}

	claims := claim.NewCodec(cfg.Onboarding.ClaimSecret, "onboarding.claim",
		claim.WithMaxAge(cfg.Onboarding.ClaimTTL))
	runs := wizard.NewStateStore(kv, cfg.Onboarding.RunTTL)
	partials := partial.NewStore(kv, 0)

	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.User, cfg.SMTP.Pass)
	sender.TLSMode = cfg.SMTP.TLSMode
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	mailer := email.NewActivationMailer(sender, cfg.Onboarding.ClaimSecret, cfg.Server.BaseURL)
	if cfg.Onboarding.ActivationKeyTTL > 0 {
		mailer.Keys = claim.NewCodec(cfg.Onboarding.ClaimSecret, email.KeyPurpose,
			claim.WithMaxAge(cfg.Onboarding.ActivationKeyTTL))
		mailer.TTL = cfg.Onboarding.ActivationKeyTTL
	}
	if cfg.SMTP.TemplateDir != "" {
		tmpl, err := email.LoadTemplates(cfg.SMTP.TemplateDir)
		if err != nil {
			logger.With(logger.Err(err)).Fatal("email templates failed to load")
		}
		mailer.Templates = tmpl
	}

	reconciler := &reconcile.Service{IDM: idmClient, Users: st.Users(), Activations: st.PendingActivations()}

	signupSvc := signup.NewService(signup.Deps{
		Wizards:          runs,
		Claims:           claims,
		Users:            st.Users(),
		Activations:      st.PendingActivations(),
		Partials:         partials,
		Mailer:           mailer,
		RegistrationOpen: func() bool { return cfg.Onboarding.RegistrationOpen },
	})
	activationSvc := activation.NewService(activation.Deps{
		Wizards:     runs,
		Claims:      claims,
		IDM:         idmClient,
		Users:       st.Users(),
		Activations: st.PendingActivations(),
		Reconciler:  reconciler,
	})
	activator := &onboarding.Activator{Keys: mailer.Keys, Users: st.Users(), Syncer: syncer}

	router := httpserver.NewRouter(
		signupctl.New(signupSvc),
		activationctl.New(activationSvc),
		onboardingctl.New(activator),
		healthctl.New(map[string]healthctl.Pinger{
			"store": st,
			"cache": kv,
		}),
	)
	srv := httpserver.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.With(logger.Err(err)).Fatal("server exited")
	}
	logger.L().Info("shutdown complete")
}

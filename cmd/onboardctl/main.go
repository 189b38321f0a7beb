// onboardctl is the operator CLI: provision pending activations and run
// identity syncs without going through the HTTP surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/onboard/internal/config"
	"github.com/dropDatabas3/onboard/internal/domain/repository"
	"github.com/dropDatabas3/onboard/internal/idm"
	"github.com/dropDatabas3/onboard/internal/observability/logger"
	tokens "github.com/dropDatabas3/onboard/internal/security/token"
	"github.com/dropDatabas3/onboard/internal/store"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:          "onboardctl",
		Short:        "Operator CLI for the onboarding service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	root.AddCommand(activationCmd(&configPath))
	root.AddCommand(userCmd(&configPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// open loads config and connects the store. The caller owns the close.
func open(ctx context.Context, configPath string) (*config.Config, store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn", ServiceName: "onboardctl"})
	st, err := store.New(ctx, store.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func activationCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activation",
		Short: "Manage pending activations",
	}

	var identityID string
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision a pending activation for an identity and print its code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, st, err := open(ctx, *configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			code, err := tokens.GenerateOpaqueToken(18)
			if err != nil {
				return err
			}
			if err := st.PendingActivations().Create(ctx, repository.PendingActivation{
				ActivationCode: code,
				IdentityID:     identityID,
			}); err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}
	create.Flags().StringVar(&identityID, "identity-id", "", "identity to pre-provision")
	_ = create.MarkFlagRequired("identity-id")

	list := &cobra.Command{
		Use:   "list",
		Short: "List live pending activations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, st, err := open(ctx, *configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			pas, err := st.PendingActivations().List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACTIVATION CODE\tIDENTITY\tCREATED")
			for _, pa := range pas {
				fmt.Fprintf(w, "%s\t%s\t%s\n", pa.ActivationCode, pa.IdentityID, pa.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func userCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	var userID string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Refresh a user's profile from its IDM identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := open(ctx, *configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := st.Users().GetByID(ctx, userID)
			if err != nil {
				return err
			}
			syncer := &idm.Syncer{
				Client: idm.NewClient(cfg.IDM.BaseURL, &http.Client{Timeout: cfg.IDM.Timeout}),
				Users:  st.Users(),
			}
			if err := syncer.SyncUser(ctx, user, nil); err != nil {
				return err
			}
			fmt.Printf("synced %s: %s %s <%s> state=%s\n", user.ID, user.FirstName, user.LastName, user.Email, user.State)
			return nil
		},
	}
	sync.Flags().StringVar(&userID, "user-id", "", "user to sync")
	_ = sync.MarkFlagRequired("user-id")

	cmd.AddCommand(sync)
	return cmd
}

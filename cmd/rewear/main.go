package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sahil-darj/Rewear/internal/config"
	"github.com/sahil-darj/Rewear/internal/logging"
	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/session"
	"github.com/sahil-darj/Rewear/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotLoggedIn = errors.New("not logged in: run `rewear login` first")

// cli holds what every command needs once the root pre-run has opened it.
type cli struct {
	configDir string
	verbose   bool

	cfg      config.Config
	logger   *zap.Logger
	rec      store.Records
	localRec store.Records
	svc      *market.Service
	sessions *session.Manager
	local    *session.Local
}

// newRootCmd builds the command tree. The returned func releases whatever the
// command opened and must run even when Execute fails.
func newRootCmd() (*cobra.Command, func() error) {
	c := &cli{}
	root := &cobra.Command{
		Use:           "rewear",
		Short:         "ReWear clothing exchange",
		Long:          "List clothes, browse the catalog and swap or redeem items with points.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "", "Directory holding config.yaml (default: current)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.signupCmd(), c.loginCmd(), c.logoutCmd(), c.whoamiCmd(), c.ledgerCmd(),
		c.browseCmd(), c.listCmd(), c.showCmd(), c.myItemsCmd(),
		c.requestCmd(), c.requestsCmd(), c.acceptCmd(), c.declineCmd(),
		c.approveCmd(), c.rejectCmd(), c.queueCmd(), c.statsCmd(),
	)
	return root, c.close
}

func (c *cli) open(ctx context.Context) error {
	var dirs []string
	if c.configDir != "" {
		dirs = append(dirs, c.configDir)
	}
	cfg, err := config.LoadConfig(dirs...)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	if c.logger == nil {
		// Production config logs to stderr; stdout is for command output.
		if c.logger, err = logging.New(cfg.Log.Level); err != nil {
			return err
		}
	}

	if c.rec, err = store.Open(cfg.Database.Driver, cfg.Database.Path); err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	c.localRec = c.rec
	if cfg.CLI.SessionPath != "" {
		if c.localRec, err = store.OpenBolt(cfg.CLI.SessionPath); err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
	}
	c.local = session.NewLocal(c.localRec)

	c.svc = market.NewService(c.rec, market.Options{
		SignupGrant: &cfg.Points.SignupGrant,
		AdminEmail:  cfg.Auth.AdminEmail,
		AutoApprove: cfg.Moderation.AutoApprove,
		Logger:      c.logger.Named("market"),
	})
	if err := c.svc.Load(ctx); err != nil {
		return err
	}
	if cfg.Seed.Demo {
		if err := c.svc.SeedDemo(ctx); err != nil {
			return err
		}
	}
	c.sessions, err = session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, nil)
	return err
}

func (c *cli) close() error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	var errs []error
	if c.localRec != nil && c.localRec != c.rec {
		errs = append(errs, c.localRec.Close())
	}
	if c.rec != nil {
		errs = append(errs, c.rec.Close())
	}
	return errors.Join(errs...)
}

// currentUser returns the signed-in user. A stale or expired session is
// cleared.
func (c *cli) currentUser(ctx context.Context) (models.User, error) {
	cur, ok, err := c.local.Load(ctx)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, errNotLoggedIn
	}
	claims, err := c.sessions.Resolve(cur.Token)
	if err == nil && claims.UserID == cur.ID {
		if u, found := c.svc.User(claims.UserID); found {
			return u, nil
		}
	}
	c.logger.Debug("dropping stale session", zap.String("user_id", cur.ID), zap.Error(err))
	if err := c.local.Clear(ctx); err != nil {
		return models.User{}, err
	}
	return models.User{}, errNotLoggedIn
}

func (c *cli) startSession(ctx context.Context, u models.User) error {
	token, _, err := c.sessions.Issue(u.ID, u.Email)
	if err != nil {
		return err
	}
	return c.local.Save(ctx, session.Current{User: u, Token: token})
}

func main() {
	root, closeAll := newRootCmd()
	err := errors.Join(root.Execute(), closeAll())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

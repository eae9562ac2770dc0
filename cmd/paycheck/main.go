// Command paycheck runs compliance analysis and report processing from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/app"
	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/pkg/config"
	"github.com/noah-isme/pay-equity-api/pkg/logger"
)

// cliClaims scopes CLI operations like an administrator.
var cliClaims = &models.JWTClaims{UserID: "paycheck-cli", Role: models.RoleAdmin, FullName: "paycheck"}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paycheck",
		Short:         "Pay equity compliance tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(analyzeCmd(), importCmd(), processCmd(), tokenCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

// withApp runs fn against a fully wired application.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, logr, err := loadConfig()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Start(ctx)
	return fn(a)
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/config"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/logger"
)

// コマンド共通の部品
type app struct {
	cfg    config.Config
	log    *logrus.Entry
	client *apiclient.Client
}

func newRootCmd() *cobra.Command {
	var (
		apiURL   string
		logLevel string
	)
	a := &app{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog, cart and design tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIBaseURL = strings.TrimRight(apiURL, "/")
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			a.cfg = cfg
			a.log = logger.New(logger.Options{
				Service: "storefront-cli",
				Env:     cfg.GoEnv,
				Level:   cfg.LogLevel,
				Output:  cmd.ErrOrStderr(),
			})
			a.client = apiclient.NewFromConfig(cfg, a.log)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newCatalogCmd(a),
		newOrderCmd(a),
		newDesignCmd(a),
		newCartCmd(a),
	)
	return root
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/back-sos/sos-bdd/internal/api"
	"github.com/back-sos/sos-bdd/internal/client"
	"github.com/back-sos/sos-bdd/internal/config"
	"github.com/back-sos/sos-bdd/internal/denuncia"
	"github.com/back-sos/sos-bdd/pkg/admin"
	"github.com/back-sos/sos-bdd/pkg/twincore"
)

const twinName = "twin-denuncia"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          twinName,
		Short:        "In-memory twin of the Back-S.O.S reporting service",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./sosbdd.yaml)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newStatusCmd(&configPath))
	root.AddCommand(newResetCmd(&configPath))
	root.AddCommand(newSeedCmd(&configPath))
	root.AddCommand(newProtocolCmd())
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the twin HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWith(v, *configPath)
			if err != nil {
				return err
			}
			twin, err := buildTwin(cfg, os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			twin.Logger.Info("twin-denuncia ready",
				"port", cfg.Twin.Port,
				"base_url", cfg.BaseURL,
			)
			return twin.Serve(ctx)
		},
	}

	f := cmd.Flags()
	f.Int("port", config.DefaultTwinPort, "listen port")
	f.Duration("latency", 0, "latency injected into every request")
	f.Float64("fail-rate", 0, "probability (0-1) of a simulated 500")
	f.Bool("verbose", false, "log every request")
	f.String("seed", "", "YAML or JSON file with reports to preload")
	bindFlags(v, cmd, map[string]string{
		"twin.port":      "port",
		"twin.latency":   "latency",
		"twin.fail_rate": "fail-rate",
		"twin.verbose":   "verbose",
		"twin.seed_file": "seed",
	})
	return cmd
}

// bindFlags binds each config key to its flag so explicitly set flags win
// over file and environment values.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// buildTwin wires the reporting API and the admin plane onto a new twin and
// preloads the seed file, if any.
func buildTwin(cfg *config.Config, logOut io.Writer) (*twincore.Twin, error) {
	twin := twincore.NewWithWriter(twincore.Config{
		Name:     twinName,
		Port:     cfg.Twin.Port,
		Latency:  cfg.Twin.Latency,
		FailRate: cfg.Twin.FailRate,
		SeedFile: cfg.Twin.SeedFile,
		Verbose:  cfg.Twin.Verbose,
	}, logOut)

	dc := denuncia.NewClient(cfg.BaseURL)
	tokens, err := api.NewTokenIssuer(nil, dc.Clock().Now)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(dc, twin.Middleware(), tokens)
	handler.Routes(twin.Router)
	twin.Metrics.MustRegister(handler.Collector())

	adminHandler := admin.NewHandler(handler, twin.Middleware(), handler.Clock())
	adminHandler.SetConfigProvider(twin)
	adminHandler.SetMetrics(twin.Metrics.Handler())
	adminHandler.Routes(twin.Router)

	if cfg.Twin.SeedFile != "" {
		data, err := os.ReadFile(cfg.Twin.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("reading seed file: %w", err)
		}
		if err := handler.LoadState(data); err != nil {
			return nil, fmt.Errorf("loading seed data: %w", err)
		}
		twin.Logger.Info("loaded seed data", "file", cfg.Twin.SeedFile)
	}
	return twin, nil
}

// adminURL resolves the running twin's address: --url, else base_url.
func adminURL(configPath, flagURL string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.BaseURL, nil
}

func newStatusCmd(configPath *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health and report count of a running twin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := adminURL(*configPath, url)
			if err != nil {
				return err
			}
			c := client.New(base)
			ok, msg := c.Health()
			if !ok {
				return fmt.Errorf("%s unhealthy: %s", base, msg)
			}

			raw, err := c.State()
			if err != nil {
				return err
			}
			var state struct {
				Denuncias map[string]json.RawMessage `json:"denuncias"`
			}
			if err := json.Unmarshal(raw, &state); err != nil {
				return fmt.Errorf("decoding state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok (%d denúncias)\n", base, len(state.Denuncias))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "twin base URL (default base_url)")
	return cmd
}

func newResetCmd(configPath *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all state on a running twin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := adminURL(*configPath, url)
			if err != nil {
				return err
			}
			out, err := client.New(base).Reset()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "twin base URL (default base_url)")
	return cmd
}

func newSeedCmd(configPath *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Replace a running twin's reports with a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := adminURL(*configPath, url)
			if err != nil {
				return err
			}
			out, err := client.New(base).Seed(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "twin base URL (default base_url)")
	return cmd
}

func newProtocolCmd() *cobra.Command {
	protocol := &cobra.Command{
		Use:   "protocol",
		Short: "Protocol utilities",
	}
	protocol.AddCommand(&cobra.Command{
		Use:   "check <protocol>",
		Short: "Check a protocol string against the SOS-YYYYMMDD-XXXXXXXX format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !denuncia.ValidateProtocolFormat(args[0]) {
				return fmt.Errorf("protocolo inválido: %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "protocolo válido: %s\n", args[0])
			return nil
		},
	})
	return protocol
}

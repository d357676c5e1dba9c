package steps

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/back-sos/sos-bdd/internal/config"
)

const (
	suiteName = "Back-S.O.S"
	banner    = "======================================================================"
)

// Suite owns the suite-wide configuration and logger and hands each scenario
// a fresh scenarioState.
type Suite struct {
	configPath string
	out        io.Writer

	cfg     *config.Config
	loadErr error
	logger  *slog.Logger
	level   *slog.LevelVar
	now     func() time.Time
}

// NewSuite returns a Suite that loads configPath (empty searches the working
// directory) before the first scenario and logs to out.
func NewSuite(configPath string, out io.Writer) *Suite {
	level := new(slog.LevelVar)
	return &Suite{
		configPath: configPath,
		out:        out,
		level:      level,
		logger:     slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})),
		now:        time.Now,
	}
}

// Config returns the configuration loaded by the BeforeSuite hook, or nil
// before it has run.
func (s *Suite) Config() *config.Config {
	return s.cfg
}

// InitializeTestSuite registers the suite banners and configuration loading.
func (s *Suite) InitializeTestSuite(ts *godog.TestSuiteContext) {
	ts.BeforeSuite(s.beforeSuite)
	ts.AfterSuite(s.afterSuite)
}

// InitializeScenario registers the scenario hooks and every step.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	state := newScenarioState(config.DefaultBaseURL, s.logger)
	state.register(sc)

	sc.Before(func(ctx context.Context, scn *godog.Scenario) (context.Context, error) {
		if s.loadErr != nil {
			return ctx, s.loadErr
		}
		baseURL := config.DefaultBaseURL
		if s.cfg != nil {
			baseURL = s.cfg.BaseURL
		}
		*state = *newScenarioState(baseURL, s.logger.With("scenario", scn.Name))
		s.logger.Info("▶ Cenário: " + scn.Name)
		return ctx, nil
	})

	sc.After(func(ctx context.Context, scn *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			s.logger.Info("✗ FALHOU", "scenario", scn.Name, "error", err)
		} else {
			s.logger.Info("✓ PASSOU", "scenario", scn.Name)
		}
		return ctx, nil
	})
}

func (s *Suite) beforeSuite() {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		s.loadErr = err
		s.logger.Error("loading config", "error", err)
		return
	}
	s.cfg = cfg
	if cfg.Twin.Verbose {
		s.level.Set(slog.LevelDebug)
	}

	s.logger.Info(banner)
	s.logger.Info("Iniciando testes BDD - "+suiteName,
		"data_hora", s.now().Format("02/01/2006 15:04:05"),
		"base_url", cfg.BaseURL,
		"features", strings.Join(cfg.Features.Paths, ","),
	)
	s.logger.Info(banner)
}

func (s *Suite) afterSuite() {
	s.logger.Info(banner)
	s.logger.Info("Testes BDD concluídos")
	s.logger.Info(banner)
}

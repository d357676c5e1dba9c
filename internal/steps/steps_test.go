package steps

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back-sos/sos-bdd/internal/config"
	"github.com/back-sos/sos-bdd/internal/denuncia"
)

// featurePaths maps the default "features" directory to the repository root,
// since go test runs from the package directory.
func featurePaths(cfg *config.Config) []string {
	if slices.Equal(cfg.Features.Paths, []string{"features"}) {
		return []string{filepath.Join("..", "..", "features")}
	}
	return cfg.Features.Paths
}

func TestFeatures(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	suite := NewSuite("", os.Stdout)
	status := godog.TestSuite{
		Name:                 "cadastro_denuncia",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options: &godog.Options{
			Format:      cfg.Features.Format,
			Paths:       featurePaths(cfg),
			Tags:        cfg.Features.Tags,
			Strict:      cfg.Features.Strict,
			Concurrency: 1,
			Output:      colors.Colored(os.Stdout),
			TestingT:    t,
		},
	}.Run()

	if status != 0 {
		t.Fatalf("godog suite exited with status %d", status)
	}
}

// ---------------------------------------------------------------------------
// Step functions driven directly
// ---------------------------------------------------------------------------

func newTestState() *scenarioState {
	return newScenarioState(config.DefaultBaseURL, suiteLogger(io.Discard))
}

func suiteLogger(w io.Writer) *slog.Logger {
	return NewSuite("", w).logger
}

func fillValid(t *testing.T, s *scenarioState) {
	t.Helper()
	in := denuncia.NewReportData()
	require.NoError(t, s.fillsTitulo(in.Titulo))
	require.NoError(t, s.fillsDescricao(in.Descricao))
	require.NoError(t, s.selectsTipo(in.Tipo))
	require.NoError(t, s.selectsLocalizacao(in.Localizacao))
}

func TestSubmitAuthenticated(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsAuthenticated())
	require.NoError(t, s.opensNewReportPage())
	fillValid(t, s)
	require.NoError(t, s.submitsReport())

	assert.NoError(t, s.reportRegisteredWithStatus("Aberta"))
	assert.Error(t, s.reportRegisteredWithStatus("Fechada"))
	assert.NoError(t, s.protocolGenerated())
	assert.NoError(t, s.successMessageHasProtocol())
	assert.NoError(t, s.redirectedToConfirmation())
	assert.NoError(t, s.reportIsAnonymous())
	assert.NoError(t, s.onlyProtocolTracksReport())

	assert.Error(t, s.reportNotRegistered())
	assert.Error(t, s.errorMessageShown("qualquer"))
	assert.Error(t, s.listingIsEmpty())

	require.NoError(t, s.looksUpByProtocol())
	assert.NoError(t, s.lookupMatchesCreated())
}

func TestSubmitUnauthenticated(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsNotAuthenticated())
	fillValid(t, s)
	require.NoError(t, s.submitsReport())

	assert.NoError(t, s.reportNotRegistered())
	assert.NoError(t, s.errorMessageShown(denuncia.MsgAuthenticationRequired))
	assert.Equal(t, denuncia.MsgAuthenticationRequired, s.errorMessage)
	assert.NoError(t, s.listingIsEmpty())

	// A submission is not a page visit, so there is no redirect.
	assert.Error(t, s.redirectedToLogin())
	assert.Error(t, s.protocolGenerated())
	assert.Error(t, s.looksUpByProtocol())
}

func TestTriesPageUnauthenticated(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsNotAuthenticated())
	require.NoError(t, s.triesNewReportPage())

	assert.NoError(t, s.redirectedToLogin())
	assert.NoError(t, s.messageShown("Você precisa estar autenticado"))
	assert.Equal(t, 401, s.response.StatusCode)
}

func TestTriesPageAuthenticated(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsAuthenticated())
	require.NoError(t, s.triesNewReportPage())

	assert.True(t, s.response.Success)
	assert.Error(t, s.redirectedToLogin())
}

func TestMissingFieldKeepsPage(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsAuthenticated())
	require.NoError(t, s.opensNewReportPage())
	fillValid(t, s)
	require.NoError(t, s.fillsDescricao(""))
	require.NoError(t, s.submitsReport())

	assert.NoError(t, s.reportNotRegistered())
	assert.Equal(t, denuncia.RequiredFieldMessage("descricao"), s.errorMessage)
	assert.NoError(t, s.staysOnCreationPage())
	assert.Equal(t, 400, s.response.StatusCode)
}

func TestThenStepsWithoutResponse(t *testing.T) {
	s := newTestState()

	assert.Error(t, s.reportRegisteredWithStatus("Aberta"))
	assert.Error(t, s.successMessageHasProtocol())
	assert.Error(t, s.redirectedToConfirmation())
	assert.Error(t, s.reportNotRegistered())
	assert.Error(t, s.errorMessageShown("x"))
	assert.Error(t, s.staysOnCreationPage())
	assert.Error(t, s.reportIsAnonymous())
	assert.Error(t, s.onlyProtocolTracksReport())
	assert.Error(t, s.redirectedToLogin())
	assert.Error(t, s.messageShown("x"))
	assert.Error(t, s.lookupMatchesCreated())
}

func TestReportIsAnonymousRejectsUserID(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.userIsAuthenticated())
	fillValid(t, s)
	require.NoError(t, s.submitsReport())

	s.created.UserID = s.testUser.ID
	assert.Error(t, s.reportIsAnonymous())
}

// ---------------------------------------------------------------------------
// Hooks
// ---------------------------------------------------------------------------

func TestSuiteBannersAndConfig(t *testing.T) {
	var out bytes.Buffer
	suite := NewSuite("", &out)

	suite.beforeSuite()
	require.NotNil(t, suite.Config())
	assert.Contains(t, out.String(), "Iniciando testes BDD - Back-S.O.S")

	suite.afterSuite()
	assert.Contains(t, out.String(), "Testes BDD concluídos")
}

func TestSuiteBadConfigFailsScenarios(t *testing.T) {
	suite := NewSuite(filepath.Join(t.TempDir(), "missing.yaml"), io.Discard)
	suite.beforeSuite()

	assert.Nil(t, suite.Config())
	assert.Error(t, suite.loadErr)
}

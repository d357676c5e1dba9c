package denuncia

import "github.com/google/uuid"

// Fixture defaults for test users and reports.
const (
	DefaultUserName  = "Usuário Teste"
	DefaultUserEmail = "teste@escola.com"
	DefaultUserRole  = "student"

	DefaultTitulo      = "Denúncia Teste"
	DefaultDescricao   = "Descrição de teste"
	DefaultTipo        = "Bullying"
	DefaultLocalizacao = "Sala 101"
)

// UserData is a test user fixture. It is never persisted by the client.
type UserData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewUserData returns the canonical test user. An empty userID is replaced
// by a fresh UUID.
func NewUserData(userID string) UserData {
	if userID == "" {
		userID = uuid.NewString()
	}
	return UserData{
		ID:    userID,
		Name:  DefaultUserName,
		Email: DefaultUserEmail,
		Role:  DefaultUserRole,
	}
}

// ReportOption overrides one field of the report fixture.
type ReportOption func(*ReportInput)

func WithTitulo(v string) ReportOption      { return func(in *ReportInput) { in.Titulo = v } }
func WithDescricao(v string) ReportOption   { return func(in *ReportInput) { in.Descricao = v } }
func WithTipo(v string) ReportOption        { return func(in *ReportInput) { in.Tipo = v } }
func WithLocalizacao(v string) ReportOption { return func(in *ReportInput) { in.Localizacao = v } }

// NewReportData returns the canonical report input with opts applied.
// Options may set a field to "" to build invalid inputs.
func NewReportData(opts ...ReportOption) ReportInput {
	in := ReportInput{
		Titulo:      DefaultTitulo,
		Descricao:   DefaultDescricao,
		Tipo:        DefaultTipo,
		Localizacao: DefaultLocalizacao,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

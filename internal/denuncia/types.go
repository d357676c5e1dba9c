// Package denuncia implements the in-memory double of the Back-S.O.S
// anonymous-report service: session simulation, report storage, protocol
// issuance, fixture builders and the validation predicates used by the
// BDD steps.
package denuncia

import "fmt"

// Status is the lifecycle state of a report.
type Status string

// Report statuses. Every report starts as StatusAberta; transitions are owned
// by the real service and never performed here.
const (
	StatusAberta      Status = "Aberta"
	StatusEmAndamento Status = "Em Andamento"
	StatusResolvida   Status = "Resolvida"
	StatusFechada     Status = "Fechada"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAberta, StatusEmAndamento, StatusResolvida, StatusFechada:
		return true
	}
	return false
}

// Report is a stored denúncia. ID, Protocol, Anonimo and CreatedAt never
// change after creation.
type Report struct {
	ID          string `json:"id" yaml:"id"`
	Protocol    string `json:"protocol" yaml:"protocol"`
	Titulo      string `json:"titulo" yaml:"titulo"`
	Descricao   string `json:"descricao" yaml:"descricao"`
	Tipo        string `json:"tipo" yaml:"tipo"`
	Localizacao string `json:"localizacao" yaml:"localizacao"`
	Status      Status `json:"status" yaml:"status"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
	// UserID is internal bookkeeping only and is stripped by Public.
	UserID  string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Anonimo bool   `json:"anonimo" yaml:"anonimo"`
}

// Public returns the report as exposed to readers: the creating user is
// removed so only the protocol links the report back to anyone.
func (r Report) Public() Report {
	r.UserID = ""
	return r
}

// ReportInput carries the fields a reporter fills in. All four are required
// and are checked in declaration order.
type ReportInput struct {
	Titulo      string `json:"titulo" yaml:"titulo" validate:"required"`
	Descricao   string `json:"descricao" yaml:"descricao" validate:"required"`
	Tipo        string `json:"tipo" yaml:"tipo" validate:"required"`
	Localizacao string `json:"localizacao" yaml:"localizacao" validate:"required"`
}

// Session is the simulated authenticated session. The token is an opaque
// placeholder and is never verified.
type Session struct {
	UserID string
	Token  string
}

// Kind classifies a failed Result.
type Kind string

const (
	KindNone                   Kind = ""
	KindValidation             Kind = "ValidationError"
	KindAuthenticationRequired Kind = "AuthenticationRequired"
	KindNotFound               Kind = "NotFound"
)

// User-facing messages, kept in the language of the real service.
const (
	MsgAuthenticationRequired = "Você precisa estar autenticado para fazer uma denúncia."
	MsgNotFound               = "Denúncia não encontrada"

	// LoginRedirect is where unauthenticated consumers send the user.
	LoginRedirect = "/login"
)

// RequiredFieldMessage is the validation error for a missing field.
func RequiredFieldMessage(field string) string {
	return fmt.Sprintf("O campo %s é obrigatório.", field)
}

// Result mirrors the response contract of the reporting API. Failures are
// never Go errors: they carry Success=false, an Error message, a StatusCode
// in {400, 401, 404} and a Kind.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Kind       Kind   `json:"-"`
	Error      string `json:"error,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	Redirect   string `json:"redirect,omitempty"`

	// Report is set by CreateReport, GetReport and GetReportByProtocol.
	Report *Report `json:"-"`
	// Reports is set by ListReports.
	Reports []Report `json:"-"`
}

// AuthenticationRequired builds the 401 result consumers must return instead
// of calling CreateReport when IsAuthenticated is false. An empty redirect
// omits the field.
func AuthenticationRequired(redirect string) Result {
	return Result{
		Success:    false,
		StatusCode: 401,
		Kind:       KindAuthenticationRequired,
		Error:      MsgAuthenticationRequired,
		Redirect:   redirect,
	}
}

func validationFailure(field string) Result {
	return Result{
		Success:    false,
		StatusCode: 400,
		Kind:       KindValidation,
		Error:      RequiredFieldMessage(field),
	}
}

func notFound() Result {
	return Result{
		Success:    false,
		StatusCode: 404,
		Kind:       KindNotFound,
		Error:      MsgNotFound,
	}
}

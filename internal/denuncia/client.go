package denuncia

import (
	"time"

	"github.com/back-sos/sos-bdd/pkg/store"
)

// DefaultBaseURL is the reporting service address used when none is configured.
const DefaultBaseURL = "http://localhost:8080"

// Client simulates the Back-S.O.S reporting API in process memory. It holds
// the session and owns the report collection; nothing is shared between
// instances. A Client is not safe for concurrent use.
//
// Authentication is not enforced by CreateReport: callers check
// IsAuthenticated first and answer with AuthenticationRequired themselves.
type Client struct {
	// BaseURL is kept for display only; no request is ever dispatched.
	BaseURL string

	session    *Session
	reports    *store.Store[Report]
	byProtocol map[string]string // protocol -> report id
	clock      *store.Clock
}

// NewClient returns an unauthenticated client with no reports. An empty
// baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		reports:    store.New[Report](),
		byProtocol: make(map[string]string),
		clock:      store.NewClock(),
	}
}

// Clock exposes the simulated clock used for created_at and protocol dates.
func (c *Client) Clock() *store.Clock {
	return c.clock
}

// Authenticate records the session unconditionally. No credential check is made.
func (c *Client) Authenticate(userID, token string) bool {
	c.session = &Session{UserID: userID, Token: token}
	return true
}

// IsAuthenticated reports whether a session token is held.
func (c *Client) IsAuthenticated() bool {
	return c.session != nil
}

// Logout drops the session but keeps stored reports.
func (c *Client) Logout() {
	c.session = nil
}

// CreateReport validates in and stores a new anonymous report with status
// Aberta. The first empty field, in the order titulo, descricao, tipo,
// localizacao, yields a 400 result.
func (c *Client) CreateReport(in ReportInput) Result {
	if field, missing := firstMissingField(in); missing {
		return validationFailure(field)
	}

	now := c.clock.Now()
	report := Report{
		ID:          c.nextReportID(),
		Protocol:    c.nextProtocol(now),
		Titulo:      in.Titulo,
		Descricao:   in.Descricao,
		Tipo:        in.Tipo,
		Localizacao: in.Localizacao,
		Status:      StatusAberta,
		CreatedAt:   now.Format(time.RFC3339Nano),
		Anonimo:     true,
	}
	if c.session != nil {
		report.UserID = c.session.UserID
	}

	c.reports.Set(report.ID, report)
	c.byProtocol[report.Protocol] = report.ID

	return Result{
		Success:    true,
		StatusCode: 201,
		Protocol:   report.Protocol,
		Report:     &report,
	}
}

// GetReport returns the report stored under id, or a 404 result.
func (c *Client) GetReport(id string) Result {
	report, ok := c.reports.Get(id)
	if !ok {
		return notFound()
	}
	return Result{Success: true, StatusCode: 200, Report: &report}
}

// GetReportByProtocol returns the report tracked by protocol, or a 404 result.
func (c *Client) GetReportByProtocol(protocol string) Result {
	id, ok := c.byProtocol[protocol]
	if !ok {
		return notFound()
	}
	return c.GetReport(id)
}

// ListReports returns every stored report. The slice is never nil.
func (c *Client) ListReports() Result {
	return Result{Success: true, StatusCode: 200, Reports: c.reports.List()}
}

// PageReports returns up to limit reports in insertion order, starting after
// the report id in cursor. A limit of 0 returns everything.
func (c *Client) PageReports(cursor string, limit int) store.Page[Report] {
	return c.reports.Paginate(cursor, limit)
}

// Reset restores the just-constructed state: no session, no reports and
// a zero clock offset.
func (c *Client) Reset() {
	c.session = nil
	c.reports.Reset()
	c.byProtocol = make(map[string]string)
	c.clock.Reset()
}

func (c *Client) nextReportID() string {
	for {
		id := c.reports.NextID()
		if _, taken := c.reports.Get(id); !taken {
			return id
		}
	}
}

func (c *Client) nextProtocol(now time.Time) string {
	for {
		p := newProtocol(now)
		if _, taken := c.byProtocol[p]; !taken {
			return p
		}
	}
}

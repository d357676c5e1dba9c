package denuncia

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// stateSnapshot is the serializable client state used by the admin plane
// and seed files.
type stateSnapshot struct {
	Denuncias map[string]Report `json:"denuncias" yaml:"denuncias"`
}

// Snapshot returns all stored reports keyed by id.
func (c *Client) Snapshot() any {
	return stateSnapshot{Denuncias: c.reports.Snapshot()}
}

// LoadState replaces the stored reports from a YAML or JSON document shaped
// like Snapshot. Loaded reports are forced anonymous, default to Aberta and
// must carry a unique protocol. The session is left untouched.
func (c *Client) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding state: %w", err)
	}

	index := make(map[string]string, len(snap.Denuncias))
	for id, r := range snap.Denuncias {
		if r.ID == "" {
			r.ID = id
		}
		if r.ID != id {
			return fmt.Errorf("denuncia %s: id field %q does not match key", id, r.ID)
		}
		if r.Status == "" {
			r.Status = StatusAberta
		}
		if !r.Status.Valid() {
			return fmt.Errorf("denuncia %s: invalid status %q", id, r.Status)
		}
		if !ValidateProtocolFormat(r.Protocol) {
			return fmt.Errorf("denuncia %s: invalid protocol %q", id, r.Protocol)
		}
		if other, dup := index[r.Protocol]; dup {
			return fmt.Errorf("denuncia %s: protocol %s already used by %s", id, r.Protocol, other)
		}
		r.Anonimo = true
		index[r.Protocol] = id
		snap.Denuncias[id] = r
	}

	c.reports.LoadSnapshot(snap.Denuncias)
	c.byProtocol = index
	return nil
}

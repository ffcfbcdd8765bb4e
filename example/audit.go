package main

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/jpalmerr/mideployer"
)

// auditLog writes every deploy event as a JSON line.
type auditLog struct {
	mu      sync.Mutex
	enc     *json.Encoder
	started int
}

func newAuditLog(w io.Writer) *auditLog {
	return &auditLog{enc: json.NewEncoder(w)}
}

type auditEntry struct {
	DeployID string `json:"deploy_id"`
	Product  string `json:"product"`
	Hostname string `json:"hostname"`
	UserID   string `json:"user_id"`
	Branch   string `json:"branch"`
	RunTests bool   `json:"run_tests"`
	Phase    string `json:"phase"`
	At       string `json:"at"`
}

// Record is a deploy callback. It does not block beyond the write.
func (a *auditLog) Record(e mideployer.DeployEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e.Phase == mideployer.PhaseDeploying {
		a.started++
	}
	_ = a.enc.Encode(auditEntry{
		DeployID: e.DeployID,
		Product:  e.Product,
		Hostname: e.Hostname,
		UserID:   e.UserID,
		Branch:   e.Branch,
		RunTests: e.RunTests,
		Phase:    e.Phase.String(),
		At:       e.At.Format("15:04:05.000"),
	})
}

// Started returns how many deploys were started.
func (a *auditLog) Started() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

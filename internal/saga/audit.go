package saga

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus is the lifecycle state of one step's audit record.
type StepStatus string

const (
	StatusExecuted            StepStatus = "executed"
	StatusFailed              StepStatus = "failed"
	StatusCompensated         StepStatus = "compensated"
	StatusCompensationFailed  StepStatus = "compensationFailed"
)

// StepRecord is one entry in a saga's audit log.
type StepRecord struct {
	Name                    string
	Status                  StepStatus
	StartedAt               time.Time
	CompletedAt             time.Time
	CompensationDescription string
	Error                   error
}

// AuditLog is an append-only, in-memory record of one saga run. It is
// returned to the caller alongside the run's result; it is never
// persisted by the engine itself.
type AuditLog struct {
	SessionID uuid.UUID
	Records   []StepRecord
}

func newAuditLog() *AuditLog {
	return &AuditLog{SessionID: uuid.New()}
}

func (a *AuditLog) recordStart(name string) {
	a.Records = append(a.Records, StepRecord{Name: name, Status: StatusExecuted, StartedAt: time.Now()})
}

func (a *AuditLog) last() *StepRecord {
	return &a.Records[len(a.Records)-1]
}

func (a *AuditLog) recordSuccess() {
	r := a.last()
	r.Status = StatusExecuted
	r.CompletedAt = time.Now()
}

func (a *AuditLog) recordFailure(err error) {
	r := a.last()
	r.Status = StatusFailed
	r.CompletedAt = time.Now()
	r.Error = err
}

func (a *AuditLog) recordCompensated(name, description string) {
	a.Records = append(a.Records, StepRecord{
		Name:                    name,
		Status:                  StatusCompensated,
		CompensationDescription: description,
		StartedAt:               time.Now(),
		CompletedAt:             time.Now(),
	})
}

func (a *AuditLog) recordCompensationFailed(name, description string, err error) {
	a.Records = append(a.Records, StepRecord{
		Name:                    name,
		Status:                  StatusCompensationFailed,
		CompensationDescription: description,
		StartedAt:               time.Now(),
		CompletedAt:             time.Now(),
		Error:                   err,
	})
}

// Summary renders a human-readable line per record, in execution order.
func (a *AuditLog) Summary() []string {
	lines := make([]string, 0, len(a.Records))
	for _, r := range a.Records {
		switch r.Status {
		case StatusExecuted:
			lines = append(lines, r.Name+": executed")
		case StatusFailed:
			lines = append(lines, r.Name+": failed: "+r.Error.Error())
		case StatusCompensated:
			lines = append(lines, r.Name+": compensated ("+r.CompensationDescription+")")
		case StatusCompensationFailed:
			lines = append(lines, r.Name+": compensation failed ("+r.CompensationDescription+"): "+r.Error.Error())
		}
	}
	return lines
}

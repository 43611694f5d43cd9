package capability

import "github.com/sirupsen/logrus"

// AuditMethod is called to log the outcome of a capability check.
type AuditMethod interface {
	Check(token, rel string, p Permission, err error)
}

// Audit wraps a Gate, sending every check's outcome to an AuditMethod
// before returning the underlying Gate's verdict unchanged. Mirrors
// auth.Audit's proxy-and-log shape.
type Audit struct {
	gate   Gate
	method AuditMethod
}

// NewAudit wraps gate so every Allowed call is also reported to method.
func NewAudit(gate Gate, method AuditMethod) *Audit {
	return &Audit{gate: gate, method: method}
}

// Allowed implements Gate.
func (a *Audit) Allowed(token, rel string, p Permission) error {
	err := a.gate.Allowed(token, rel, p)
	a.method.Check(token, rel, p, err)
	return err
}

// NewAuditLog returns an AuditMethod that logs each check to l at field
// "system"="capability", matching auth.NewAuditLog's shape.
func NewAuditLog(l *logrus.Logger) AuditMethod {
	return &auditLog{log: l.WithField("system", "capability")}
}

const auditLogMessage = "capability check"

type auditLog struct {
	log *logrus.Entry
}

func (a *auditLog) Check(token, rel string, p Permission, err error) {
	fields := logrus.Fields{
		"token":      token,
		"relation":   rel,
		"permission": p.String(),
		"success":    true,
	}
	if err != nil {
		fields["success"] = false
		fields["err"] = err
	}
	a.log.WithFields(fields).Info(auditLogMessage)
}

package dashboard

import (
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// AuditObserver
// -----------------------------------------------------------------------------

// AuditObserver persists every fetch outcome. Storage failures are logged and
// never reach the loop.
type AuditObserver struct {
	DB     interfaces.IDatabase
	Logger *logger.Logger
}

func NewAuditObserver(db interfaces.IDatabase, log *logger.Logger) *AuditObserver {
	return &AuditObserver{DB: db, Logger: log}
}

func (a *AuditObserver) OnFetchComplete(rec models.MFetchRecord) {
	if err := a.DB.SaveFetchRecord(rec); err != nil {
		a.Logger.Error("Failed to save fetch record #%d: %v", rec.Sequence, err)
	}
}

// -----------------------------------------------------------------------------
// ObserverFunc
// -----------------------------------------------------------------------------

// ObserverFunc adapts a plain function to IFetchObserver.
type ObserverFunc func(rec models.MFetchRecord)

func (f ObserverFunc) OnFetchComplete(rec models.MFetchRecord) {
	f(rec)
}

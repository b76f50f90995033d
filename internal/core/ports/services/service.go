package services

import "time"

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Signing   SigningSvc
	Access    AccessSvc
	Document  DocumentSvc
	Audit     AuditSvc
	Collector VerificationCollector

	// Clock is the time source the services evaluate expiry against.
	Clock func() time.Time
}

package service

import (
	"context"

	"dossier/internal/audit"
	"dossier/internal/dossier/models"
	"dossier/pkg/domain"
)

// Lookups is the per-store read side the orchestrator fans out over.
type Lookups interface {
	Basic(ctx context.Context, cpf domain.CPF) (*models.Basic, error)
	Emails(ctx context.Context, contactID int64) ([]string, error)
	Phones(ctx context.Context, contactID int64) ([]string, error)
	Score(ctx context.Context, contactID int64) (*models.Score, error)
	IncomeTax(ctx context.Context, contactID int64) (*models.IncomeTax, error)
	PIS(ctx context.Context, contactID int64) (string, error)
	Profession(ctx context.Context, contactID int64) (*models.Profession, error)
	Education(ctx context.Context, contactID int64) (*models.Education, error)
	Electoral(ctx context.Context, contactID int64) (*models.Electoral, error)
	Relatives(ctx context.Context, cpf domain.CPF) ([]models.Relative, error)
	PurchasingPower(ctx context.Context, contactID int64) (*models.PurchasingPower, error)
}

// AddressSource supplies addresses for a contact. The default reads the
// address store; a bulk dataset can be plugged in instead.
type AddressSource interface {
	Addresses(ctx context.Context, contactID int64) ([]models.Address, error)
}

// Cache stores complete composite records by CPF.
type Cache interface {
	Get(ctx context.Context, cpf domain.CPF) (*models.CompositeRecord, bool, error)
	Set(ctx context.Context, cpf domain.CPF, rec *models.CompositeRecord) error
}

// AuditPublisher records one event per resolve.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Package directory exposes the provider and patient directories to the
// scheduling engine. The engine only ever needs existence checks and minimal
// summaries; full profiles stay behind this boundary.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrPatientNotFound  = errors.New("patient not found")
)

// ProviderSummary is the minimized projection of a care provider joined onto
// scheduling reads.
type ProviderSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

// PatientSummary is the minimized projection of a patient.
type PatientSummary struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Directory resolves provider and patient references.
type Directory interface {
	ProviderExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetProviderSummary(ctx context.Context, id uuid.UUID) (*ProviderSummary, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetPatientSummary(ctx context.Context, id uuid.UUID) (*PatientSummary, error)
}

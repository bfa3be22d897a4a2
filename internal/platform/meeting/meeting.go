// Package meeting provisions video-conference links for telehealth
// appointments. Provisioning is best-effort enrichment: a failure leaves the
// appointment bookable and booked, just without a join link.
package meeting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Links is the join/host URL pair attached to an appointment.
type Links struct {
	JoinURL string
	HostURL string
}

// Provisioner creates a meeting room for an appointment.
type Provisioner interface {
	Provision(ctx context.Context, appointmentID uuid.UUID) (Links, error)
}

// StaticProvisioner derives deterministic room URLs from a base address. It
// stands in for an external conferencing API.
type StaticProvisioner struct {
	baseURL string
}

func NewStaticProvisioner(baseURL string) *StaticProvisioner {
	return &StaticProvisioner{baseURL: baseURL}
}

func (p *StaticProvisioner) Provision(_ context.Context, appointmentID uuid.UUID) (Links, error) {
	if p.baseURL == "" {
		return Links{}, fmt.Errorf("meeting base url not configured")
	}
	room := appointmentID.String()
	return Links{
		JoinURL: fmt.Sprintf("%s/join/%s", p.baseURL, room),
		HostURL: fmt.Sprintf("%s/host/%s", p.baseURL, room),
	}, nil
}

package meeting

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStaticProvisioner(t *testing.T) {
	p := NewStaticProvisioner("https://meet.example.com")
	id := uuid.New()

	links, err := p.Provision(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(links.JoinURL, "https://meet.example.com/join/") {
		t.Errorf("unexpected join url: %s", links.JoinURL)
	}
	if !strings.Contains(links.HostURL, id.String()) {
		t.Errorf("host url should embed the appointment id: %s", links.HostURL)
	}
	if links.JoinURL == links.HostURL {
		t.Error("join and host urls should differ")
	}
}

func TestStaticProvisioner_Unconfigured(t *testing.T) {
	p := NewStaticProvisioner("")
	if _, err := p.Provision(context.Background(), uuid.New()); err == nil {
		t.Error("expected error when base url is empty")
	}
}

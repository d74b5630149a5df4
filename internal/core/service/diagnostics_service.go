package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

type DiagnosticsService struct {
	backend ports.Backend
}

func NewDiagnosticsService(backend ports.Backend) *DiagnosticsService {
	return &DiagnosticsService{backend: backend}
}

// Check issues an unauthenticated read against the backend. Any HTTP answer,
// including 401/403, proves the backend is reachable.
func (s *DiagnosticsService) Check(ctx context.Context) ports.DiagnosticsReport {
	report := ports.DiagnosticsReport{BackendURL: s.backend.BaseURL()}

	status, err := s.backend.Ping(ctx)
	if err != nil {
		report.Status = "network error"
		report.Detail = err.Error()
		return report
	}

	report.Reachable = true
	report.Status = fmt.Sprintf("%d %s", status, http.StatusText(status))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		report.Detail = "backend is up and rejects anonymous reads"
	case http.StatusOK:
		report.Detail = "backend is up and allows anonymous reads of contacts"
	default:
		report.Detail = "backend answered with an unexpected status"
	}
	return report
}

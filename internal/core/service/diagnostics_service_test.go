package service

import (
	"context"
	"testing"
)

func TestDiagnosticsService_Check(t *testing.T) {
	cases := []struct {
		name      string
		ping      func() (int, error)
		reachable bool
		status    string
	}{
		{"forbidden", func() (int, error) { return 403, nil }, true, "403 Forbidden"},
		{"unauthorized", func() (int, error) { return 401, nil }, true, "401 Unauthorized"},
		{"public", func() (int, error) { return 200, nil }, true, "200 OK"},
		{"down", func() (int, error) { return 0, errBoom }, false, "network error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			be := newFakeBackend()
			be.pingFn = tc.ping
			report := NewDiagnosticsService(be).Check(context.Background())

			if report.Reachable != tc.reachable || report.Status != tc.status {
				t.Errorf("report = %+v", report)
			}
			if report.BackendURL != "http://cms.test" {
				t.Errorf("BackendURL = %q", report.BackendURL)
			}
			if report.Detail == "" {
				t.Error("expected a detail message")
			}
		})
	}
}

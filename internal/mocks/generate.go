// Package mocks provides generated mocks for the console's ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the backend and audit interfaces. To regenerate after interface
// changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().Me(gomock.Any()).Return(user, nil)
package mocks

// Generate mock for the AuthBackend port (login/logout/me/refresh/verify).
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_backend_mock.go github.com/vitrinnea/admin-console/internal/ports AuthBackend

// Generate mock for the AuditRecorder port.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audit_recorder_mock.go github.com/vitrinnea/admin-console/internal/ports AuditRecorder

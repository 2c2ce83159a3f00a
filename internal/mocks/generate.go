// Package mocks provides mock implementations for testing the deskmetrics
// pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core ports. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockHelpdeskClient(ctrl)
//	client.EXPECT().GetAllTickets(gomock.Any()).Return(tickets, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=helpdesk_client_mock.go github.com/deskmetrics/deskmetrics/internal/core HelpdeskClient

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_ledger_mock.go github.com/deskmetrics/deskmetrics/internal/core JobLedger

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=config_repository_mock.go github.com/deskmetrics/deskmetrics/internal/core ConfigRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ticket_repository_mock.go github.com/deskmetrics/deskmetrics/internal/core TicketRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=snapshot_repository_mock.go github.com/deskmetrics/deskmetrics/internal/core SnapshotRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=aggregate_repository_mock.go github.com/deskmetrics/deskmetrics/internal/core AggregateRepository

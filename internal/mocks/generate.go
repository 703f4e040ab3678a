// Package mocks provides gomock mocks for the staffgate ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	throttle := mocks.NewMockLoginThrottle(ctrl)
//	throttle.EXPECT().Check(gomock.Any(), "203.0.113.7").Return(ports.ThrottleDecision{Allowed: true}, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/vitalora/staffgate/internal/ports CredentialVerifier,TokenCodec,LoginThrottle,AuditRecorder,AuditReader,AuditPruner

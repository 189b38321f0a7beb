// Package repository defines the persistence contracts for the onboarding
// service. Implementations live under internal/store; services depend only
// on these interfaces and the sentinel errors below.
package repository

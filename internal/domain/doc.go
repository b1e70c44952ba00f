// Package domain contains the core business entities of the worker: queued
// tasks, wearable integrations, and the normalized synced-record families.
// It is independent of any storage or transport mechanism.
package domain

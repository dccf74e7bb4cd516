// Package model defines the domain types for the envbox CLI.
//
// The central entity is Sandbox: a provisioned environment described by a
// manifest (an ordered package list plus computed environment variables).
// Sandboxes provisioned into Docker containers persist all their metadata
// as container labels, so these types are transient representations
// reconstructed from Docker API queries at runtime.
package model

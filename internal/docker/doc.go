// Package docker provides container-mode sandbox provisioning on top of
// the Docker Engine SDK.
//
// Sandboxes provisioned into containers persist all of their metadata as
// container labels under the envbox. prefix, so the full Sandbox model
// can be reconstructed from Docker API queries without any state file.
package docker

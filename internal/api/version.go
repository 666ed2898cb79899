// Package api provides the HTTP handlers of the mentorship backend.
package api

// APIVersion represents the current API version supported by this server.
// Clients read it from /status to detect capabilities.
const (
	// APIVersion1 is the first API version
	APIVersion1 = 1

	// CurrentAPIVersion is the highest API version supported by this server
	CurrentAPIVersion = APIVersion1
)

// APICapabilities describes the features available at each API version
var APICapabilities = map[int][]string{
	APIVersion1: {
		"auth",
		"profiles",
		"directory",
		"mentorship-requests",
		"sessions",
		"notifications",
	},
}

// StatusResponse is the response from the /status endpoint
type StatusResponse struct {
	Status       string   `json:"status"`
	Service      string   `json:"service"`
	APIVersion   int      `json:"api_version"`
	Capabilities []string `json:"capabilities,omitempty"`
	Storage      string   `json:"storage,omitempty"`
}

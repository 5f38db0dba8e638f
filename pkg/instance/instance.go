package instance

import (
	"os"

	"github.com/cleanmatch/cleanmatch-backend/pkg/env"
)

const fallbackID = "local"

// GetID identifies the running process in logs. CLEANMATCH_INSTANCE_ID wins,
// then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("CLEANMATCH_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}

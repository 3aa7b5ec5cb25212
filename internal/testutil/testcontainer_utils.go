package testutil

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// RequireDocker skips t in -short mode or when no container provider is
// reachable.
func RequireDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func skipOnStartError(t *testing.T, name string, err error) {
	t.Helper()

	if err != nil {
		t.Skipf("%s container unavailable: %v", name, err)
	}
}

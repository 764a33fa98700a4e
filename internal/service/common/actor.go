//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who issued a command.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the OS user.
	Username string
}

// DetectActor gathers host and user information for audit trail.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String returns username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return ""
	}

	return a.Username + "@" + a.Hostname
}

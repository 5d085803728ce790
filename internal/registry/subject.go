package registry

import (
	"fmt"
	"strings"

	"quill/internal/services"
)

const maxLoginLength = 39

// ValidateSubject applies GitHub's login rules: 1-39 characters,
// alphanumerics and single hyphens, no leading or trailing hyphen.
func ValidateSubject(login string) error {
	if login == "" {
		return invalidSubject("username is required")
	}
	if len(login) > maxLoginLength {
		return invalidSubject(fmt.Sprintf("username exceeds %d characters", maxLoginLength))
	}
	if strings.HasPrefix(login, "-") || strings.HasSuffix(login, "-") {
		return invalidSubject("username cannot start or end with a hyphen")
	}
	if strings.Contains(login, "--") {
		return invalidSubject("username cannot contain consecutive hyphens")
	}
	for _, r := range login {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return invalidSubject(fmt.Sprintf("username contains invalid character %q", r))
		}
	}
	return nil
}

func invalidSubject(message string) error {
	return services.Wrap(services.ErrValidation, "registry", "validate subject", message, nil)
}

package domain

import (
	"fmt"
	"regexp"

	apperrors "github.com/Dharakkkk/GithubAssistant/internal/errors"
)

// MaxUsernameLength is the longest login GitHub accepts
const MaxUsernameLength = 39

// letters and digits, optionally separated by single hyphens
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

// ValidateUsername checks the shape of a username and returns it unchanged
func ValidateUsername(username string) (string, error) {
	if username == "" {
		return "", apperrors.NewInvalidInputError("Invalid username: username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return "", apperrors.NewInvalidInputError(
			fmt.Sprintf("Invalid username: longer than %d characters", MaxUsernameLength))
	}
	if !usernameRegex.MatchString(username) {
		return "", apperrors.NewInvalidInputError(fmt.Sprintf("Invalid username: %s", username))
	}
	return username, nil
}

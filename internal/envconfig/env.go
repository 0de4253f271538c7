package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// MustGet returns the value of the requested environment variable or panics if it's empty.
func MustGet(name string) string {
	value := os.Getenv(name)
	if value == "" {
		panic(fmt.Sprintf("expected env %s to be set", name))
	}
	return value
}

// GetInt parses the requested environment variable as an integer, returning the
// fallback when unset or unparsable.
func GetInt(name string, fallback int) int {
	raw := Get(name, "")
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

// GetBool interprets the requested environment variable as a boolean flag.
func GetBool(name string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(Get(name, "")))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}

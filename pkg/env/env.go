package env

import (
	"os"
	"strings"
)

const envKey = "CITYPATH_ENV"

// IsDevelopEnv reports whether the process runs outside production. An unset
// CITYPATH_ENV counts as development.
func IsDevelopEnv() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))
	return v == "" || v == "dev" || v == "develop" || v == "development"
}

// Package config defines the application configuration model and loads it
// from the environment (TASKWARD_* variables) and an optional config.yaml,
// validating the result before the rest of the application sees it.
package config

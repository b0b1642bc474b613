// Package config holds the settings of uxaudit: defaults, the optional
// .uxaudit YAML file and the API keys taken from the environment.
package config

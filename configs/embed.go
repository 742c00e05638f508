// Package configs provides embedded configuration templates for openmc-assist.
//
// The template is written by `openmc-assist config init` as .openmc-assist.yaml
// in the project directory. See internal/config Load() for the precedence order.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented template for .openmc-assist.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

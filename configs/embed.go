// Package configs provides the embedded configuration template written by
// `notedex init`. Embedding at build time keeps the template available in
// every distribution, source builds and binary releases alike.
package configs

import _ "embed"

// VaultConfigTemplate is the commented starter config written into a vault
// as .notedex.yaml.
//
//go:embed vault-config.example.yaml
var VaultConfigTemplate string

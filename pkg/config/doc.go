/*
Package config loads a kestrel configuration directory into the domain
types pkg/system drives (spec.md §6's External Interfaces): one merged
types.Settings, a types.Service per *.service.{toml,yml,yaml} file and a
types.Profile per *.profile.{toml,yml,yaml} file, found by a recursive,
symlink-following directory walk.

It plays the role of cmd/warren/apply.go's "parse a declarative file into a
Go struct, then convert into the domain model" idiom, generalized from one
YAML-only apply file to a directory of TOML-or-YAML service/profile/settings
files. pkg/system never imports this package — it only ever sees the
resulting types.Profile/types.Service/types.Settings values, matching
spec.md §9's description of the config layer as an external collaborator.
*/
package config

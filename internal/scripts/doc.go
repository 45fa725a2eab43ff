// Package scripts persists the catalog of named shell scripts. It provides
// the Record data model, a YAML-backed CatalogStore enforcing name
// uniqueness, and the Cobra command builders for catalog maintenance.
package scripts

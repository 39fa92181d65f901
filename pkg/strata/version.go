// Package strata holds build metadata for the strata module.
package strata

// Version is the release version of the strata module and CLI.
const Version = "0.1.0"

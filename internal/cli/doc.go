// Package cli turns command-line arguments and CASHGRID_* environment
// variables into an app.Config.
package cli

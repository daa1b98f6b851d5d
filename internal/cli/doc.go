// Package cli parses command-line arguments into the application's runtime
// configuration. It owns user-input validation and process-level concerns
// such as exit codes and help output; everything past flag parsing belongs
// to the app package.
package cli

// Package formats registers the spreadsheet dialects with the core registry.
// Import this package to ensure all dialects are registered.
package formats

// Each dialect file uses init() to register itself.

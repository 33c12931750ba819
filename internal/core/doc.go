// Package core derives a new locale of the food database from a curated
// spreadsheet.
//
// The package holds all domain logic independent of transport. The HTTP
// server and the derive CLI both drive it through [Service].
//
// # Formats
//
// Each spreadsheet dialect registers a [Format] at init time. Its parser turns
// data rows into the closed set of [FoodAction] values:
//
//   - [Include] keeps an existing food, optionally with stamped copies
//   - [New] creates one food per description
//   - [Clone] copies an existing food under a new code
//   - [NoAction] skips the row
//
// Parsers never stop at the first bad row. Every row problem is returned
// together so the curator can fix the whole sheet in one pass. Dialects live in
// the formats subpackage and are enabled with a blank import:
//
//	import _ "github.com/JonMunkholm/fooddb/internal/core/formats"
//
// # Derivation
//
// [Service.Derive] moves through these states:
//
//  1. validating: parse, check portion size methods and FCT references, then
//     resolve both locales. Any row problem rejects the run with a
//     [RejectedError] before the locales are looked up.
//  2. code_assignment: generate food codes in row order, unique within the run,
//     then replace any that already exist in the store.
//  3. committing: write foods, copies, local data, categories and locale
//     membership in one transaction, then record the run.
//
// [Service.Preview] stops after code assignment.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Codes
// DRV001-DRV007 cover derivation failures; see error_messages.go.
package core

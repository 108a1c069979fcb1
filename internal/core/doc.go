// Package core holds the claims import workflow, independent of the HTTP
// layer and the CLI.
//
// # Workflow
//
// An import moves through four states:
//
//	Uploaded -> Mapping -> Success
//	                    -> Failed
//
// [Service.Upload] stores the document, extracts its headers and rows and
// proposes a column mapping. [Service.Process] records the confirmed
// mapping (moving the import to Mapping) and runs one batch through the
// [Coordinator]:
//
//  1. [Assemble] normalizes every mapped cell of a row and sorts the
//     values into entity bags (patient, provider, policy, claim and
//     diagnoses).
//  2. [LoadRow] writes the non-empty bags, linking claims to the patient,
//     provider and policy created from the same row.
//  3. The batch counts fields and rows and picks the terminal status with
//     [TerminalStatus].
//
// # Transactions
//
// A batch runs in one transaction. Each row is wrapped in a savepoint so a
// failing row is rolled back alone and reported in the failed sample. A
// batch-level error rolls back everything and leaves the import in Mapping,
// where [RunStaleSweep] will eventually report it.
//
// # Errors
//
// Sentinel errors live in errors.go. [MapError] turns any error into a
// [UserMessage] with a support code for API and CLI output.
package core

// Package archive keeps a SQLite history of finished sessions.
//
// Each terminal outcome is written once with its generated markdown (when
// there is one) and the analysis JSON. The archive is read by the history
// endpoint and CLI; it never rehydrates a live session. Writes retry on
// SQLITE_BUSY and the schema is versioned; a mismatch asks the operator to
// delete the database rather than migrating it.
package archive

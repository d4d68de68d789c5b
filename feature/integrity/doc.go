// Package integrity checks that a stash database can be synced safely and quickly.
//
// # Checks Provided
//
//   - Schema: Compares the schema_migrations version with the tested versions. An untested
//     version warns, or refuses the sync when INTEGRITY_STRICT_SCHEMA is set.
//   - Tables: Verifies every table and column the sync reads or writes (entity, performer and
//     tag association tables of each enabled kind, performers_tags and tags).
//   - Indexes: Checks the organized filter index and the tag lookup index of each kind, and
//     creates the missing ones. A failing index is logged, never fatal.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema version check.
//   - GET /integrity/tables : Runs the tables check.
//   - GET /integrity/indexes : Runs the index check (supports ?fix=true).
package integrity

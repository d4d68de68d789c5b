// Package utils provides loose type conversion helpers for values read from
// configuration, query strings and raw SQL scans.
package utils

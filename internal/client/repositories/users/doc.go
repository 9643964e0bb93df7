// Package users persists user records. Two stores implement Repository: a
// JSON array file replaced atomically on every write, and a SQLite table.
// Both return records in insertion order, which is the order the login scan
// walks.
package users

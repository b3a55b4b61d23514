/*
Package editor validates node input and applies create, update, delete and
connect operations to a flowchart while keeping its text links consistent.

The functions in this package are pure: they take a flowchart and return a
new one. Service wraps them with load and versioned save against a Store.
*/
package editor

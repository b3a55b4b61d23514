/*
Package session serializes access to play sessions.

Every read-modify-write of a session runs under a per-session mutex, and
optionally under a distributed lock so several server replicas can share one
session store.
*/
package session

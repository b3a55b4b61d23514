/*
Package observability turns engine and editor events into metrics and logs.

Metrics are kept in a private Prometheus registry so several players can run
in one process. Hooks from different sources are merged with Combine.
*/
package observability

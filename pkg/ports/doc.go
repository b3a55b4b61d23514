/*
Package ports defines the driven ports (interfaces) of arbor.

These interfaces decouple the engine and editor from concrete backends, so the
same flowchart documents can live in memory, on disk, in S3, Redis or SQLite.

# Key Interfaces

  - ObjectStore: whole-document storage with versioned, conditional writes.
  - StateStore: persists play sessions.
  - Cache: the last-viewed flowchart slot.
  - DistributedLocker: serializes access to one session across replicas.
  - Watcher: change notifications for stores that can observe their backend.
*/
package ports

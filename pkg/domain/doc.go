/*
Package domain contains the core models of arbor: flowcharts, nodes, play state
and the error kinds shared by the engine, the editor and the adapters.

It is kept pure and free of I/O. Persistence, transport and presentation live in
the adapters and talk to this package through the interfaces in pkg/ports.

# Key Entities

  - Node: one question (yesno) or info step. Links point at the target node's text.
  - Flowchart: a named, ordered list of nodes. The node at index 0 is the entry.
  - HistoryEntry: one decision taken during a walk (yes, no, Next or the End marker).
  - State: the persisted snapshot of a play session.
*/
package domain

/*
Package ports defines the driven ports (interfaces) for the Tapestry runtime.

These interfaces decouple the narrative core from its persistence collaborator, allowing
the runtime to work with in-memory, SQLite or Redis backends.

# Key Interfaces

  - GraphReader: typed read lookups into the persisted story graph.
  - GraphWriter: topology writes, used only by bundle import and authoring tools.
  - PlaythroughStore: the append-only playthrough log, the auto bookmark and per-World settings.
  - SessionController: the driving side, implemented by the runtime and consumed by frontends.

Every adapter is expected to pass RunGraphStoreContract and/or RunPlaythroughStoreContract.
*/
package ports

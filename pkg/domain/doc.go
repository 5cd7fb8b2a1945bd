/*
Package domain contains the core domain models of the Tapestry storyworld runtime.

It defines the story graph (Worlds, Scenes, Events, Choices, Inputs, Paths and the
Conditions/Effects attached to them), the typed Variables that make up world state, and
the append-only playthrough log the runtime maintains. This package is kept pure and free
of I/O, following Hexagonal Architecture principles.

# Key Entities

  - World, Folder, Scene: the authored containers, linked through ChildRef values.
  - Event: a passage with content, outgoing Choices or one Input, and an ending flag.
  - Path: a conditional, effect-bearing edge out of an Event, Choice or Input.
  - VariableState: the snapshot of every Variable value recorded with each log entry.
  - PlaythroughEvent: one entry of the linear playthrough log.
  - Bookmark: the "where the player left off" pointer.
*/
package domain

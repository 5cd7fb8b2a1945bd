// Package runtime implements the narrative core: starting-destination and route
// resolution, the effect applier, passage rendering and the playthrough state machine.
//
// The Engine only reads the story graph. Its writes are limited to the playthrough log,
// the auto bookmark and settings, all through ports.PlaythroughStore.
package runtime

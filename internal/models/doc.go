// Package models defines the core domain models for choreshare.
//
// # Entities
//
//   - Group: a shared space (household, office) with an ordered membership roster
//   - Member: a person who performs chores, optionally linked to a signed-in user
//   - Chore: a definition of a repeatable task with an effort weight
//   - ChoreLog: an immutable record that a chore was performed
//   - GroupInvite: a shareable code for joining a group
//   - Reminder: a weekday + time-of-day schedule attached to a chore
//
// # Design Principles
//
// 1. **Values, not handles**: models are plain structs; services copy, mutate and save them
// 2. **IDs over pointers**: relationships reference other entities by uuid.UUID
// 3. **History is kept**: members and chores are soft-deleted through Lifecycle so that
// old logs still resolve
// 4. **Patches are explicit**: nullable fields in update requests use Patch[T] so that
// "not mentioned" and "clear it" are different states
//
// Models do not talk to storage and do not enforce permissions. The service package
// owns every invariant that spans more than one field.
package models

// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Users and generated playlists support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : accounts, profile search, online presence and transactional profile updates via [UserRepository.Mutate]
//   - [FriendshipRepository] : friend requests and accepted friendships
//   - [PlaylistRepository] : history of playlists generated from a mood
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, playlist #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

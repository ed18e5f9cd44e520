// Package models defines domain entities and persistence interfaces for the Moody service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): JSON request and response bodies shared by the server and the client
//   - [RegisterRequest], [LoginRequest], [AuthResponse] : authentication exchanges
//   - [ProfileResponse], [ProfilePatch], [AccountUpdate] : profile reads and updates
//   - [ProfileSummary] : a row of a profile search
//   - [UploadURLRequest], [UploadURLResponse], [PictureCommit] : presigned profile image uploads
//   - [Recommendation], [RecommendedTrack], [MoodVector] : mood playlist recommendations
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : accounts with profile fields, verification state and a linked Spotify token
//   - [Friendship] : friend requests between two users
//   - [GeneratedPlaylist] : playlists created on Spotify from a mood
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models

// Package server is the Moody HTTP backend: routing, middleware and the JSON API under /api/v1.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
// Routes marked [Route.Auth] are wrapped with [RequireAuth], which rejects missing, expired and
// revoked bearer tokens and stores the claims for [ClaimsFrom].
//
// # Handler Interface
//
// Endpoint groups implement the [Handler] interface and describe themselves as a list of [Route]s:
//   - [AuthHandler] : register, login, logout, email verification and password reset
//   - [ProfileHandler] : profile reads, single-field and composite updates, search, pictures
//   - [FriendsHandler] : friend lists and requests
//   - [MoodHandler] : mood labels, recommendations and generated playlists
//   - [SpotifyHandler] : account linking through the OAuth2 authorization code flow
//
// Every non-2xx JSON response has the body {"error": "<message>"}. Errors wrapping a sentinel from
// the shared package map to a status code; anything else is logged and reported as a 500.
//
// # Application
//
// [NewApp] builds the repositories over a database and mounts every handler. [App.Serve] runs the
// server until its context is cancelled and then shuts down gracefully.
package server

// Package services defines the [Service] interface for music streaming providers and implements it for Spotify.
//
// # Service Interface
//
// The mood engine only needs a narrow view of a provider: the user's top tracks and
// artists, artist genres, and playlist creation. [Service] is that view, so the engine
// can be tested against an in-memory fake.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The backend keeps one configured service and derives a per-user copy with
// [SpotifyService.ForToken]. The copy's [oauth2.Client] refreshes expired tokens using
// the refresh token, and [SpotifyService.SetTokenRefreshCallback] lets the caller
// persist each refreshed token on the user record.
//
// Requests share a [rate.Limiter] so a burst of genre lookups does not trip the
// Web API's rate limits.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token rejected, reauthorization needed
//   - [shared.ErrAPIRequest] : the API answered with an error status
//   - [shared.ErrServiceUnavailable] : the API could not be reached
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//
// # API Mappings
//
// Spotify responses are converted to the provider-neutral [Track], [Artist] and
// [Playlist]. A track keeps the ids of all its artists, primary first, so genres can
// be looked up per artist.
package services

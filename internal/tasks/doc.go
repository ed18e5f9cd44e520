// Package tasks builds mood recommendations and playlists from a listener's history with
// real-time progress reporting.
//
// # Recommendation
//
// [MoodEngine.Recommend] runs in four phases:
//
//  1. Pool: a random page of the listener's top tracks. The time range rotates daily
//     across short, medium and long term. With no top tracks, the top artists' own
//     top tracks are used instead.
//  2. Genres: artist genres are fetched [services.MaxArtistIDs] at a time on a bounded
//     worker pool.
//  3. Score: a track scores one point per genre matching the mood's patterns (see [Moods]).
//  4. Select: matching tracks are preferred, duplicates collapse on [CanonicalTitle] and
//     primary artist, and picks are spread across artists with at most two each.
//
// [MoodEngine.BuildPlaylist] saves the result as a private playlist.
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Updates use select with
// default so a slow reader never blocks the engine.
package tasks

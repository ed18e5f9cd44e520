// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views, cycled with tab:
//  1. [GalleryView] : Type a mood to generate a playlist. The newest entry is highlighted briefly.
//  2. [SearchView] : Live search over profiles or artists. Fresh results carry a "new" marker
//     and enter toggles the selected artist as a favorite.
//  3. [ProfileView] : Edit a profile draft with a dirty indicator, then save or discard it.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Search responses carry the ticket they were issued with, so a slow response never replaces newer results.
// While a marker is live the model schedules tea.Tick refreshes so it disappears on time.
//
// The palette is derived from the profile color. Call [Model.Close] after the program exits.
package ui

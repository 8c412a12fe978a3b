// Package ui is the Bubble Tea front end of stockdash.
//
// Core pieces:
//   - View: a screen or region with its own update and view (Elm-style)
//   - DynamicLayoutView: one screen's panels in a grid, reordered by mouse
//     or keyboard drag and animated with FLIP moves
//   - SettingsOverlay: per-panel visibility toggles and layout reset
//   - AdminView: edits every screen's layout and pushes it to all users
//   - FocusManager: tracks and rotates focus across panels
//   - Overlay: modal views with a dismiss key
//   - KeyHandler: leader-key (SPC) command sequences, filtered by AppMode
package ui

package ui

import (
	"time"

	"stockdash/internal/api"
)

// LayoutChangedMsg is sent when any layout in the registry changes
// (local edit, hydration, admin write or another process via the cache).
type LayoutChangedMsg struct {
	Key string
}

// LoginResultMsg carries the outcome of the startup login.
type LoginResultMsg struct {
	User api.User
	Err  error
}

// HydratedMsg is sent when the post-login layout fetch finishes.
type HydratedMsg struct {
	Err error
}

// LMSConfigMsg carries the global screen configuration.
type LMSConfigMsg struct {
	Config api.LMSConfig
	Err    error
}

// SyncTickMsg drives the periodic flush.
type SyncTickMsg time.Time

// FlushedMsg reports a flush attempt. Saved is false when nothing was sent.
type FlushedMsg struct {
	Saved bool
	Err   error
}

// FlushNowMsg forces a save of the registry (SPC y f).
type FlushNowMsg struct{}

// HydrateMsg re-fetches the saved layouts from the server (SPC y h).
type HydrateMsg struct{}

// SwitchTabMsg shows the layout tab at Index.
type SwitchTabMsg struct {
	Index int
}

// NextTabMsg and PrevTabMsg rotate through the layout tabs.
type NextTabMsg struct{}
type PrevTabMsg struct{}

// OpenSettingsMsg opens the panel settings of the active tab (SPC l s).
type OpenSettingsMsg struct{}

// ResetLayoutMsg resets the active tab's layout (SPC l r).
type ResetLayoutMsg struct{}

// ShowAdminMsg switches to the admin tool (SPC a).
type ShowAdminMsg struct{}

// CloseAdminMsg returns from the admin tool to the layout tabs.
type CloseAdminMsg struct{}

// ShowPushConfirmMsg opens the push confirmation.
type ShowPushConfirmMsg struct{}

// PushLayoutsMsg is sent when the admin confirms the push.
type PushLayoutsMsg struct{}

// PushResultMsg reports the broadcast outcome.
type PushResultMsg struct {
	Users int
	Err   error
}

// DismissModalMsg is sent when the user cancels a modal.
type DismissModalMsg struct{}

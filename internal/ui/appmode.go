package ui

// AppMode is the top-level screen: the layout tabs or the admin tool.
type AppMode int

const (
	ModeLayouts AppMode = iota
	ModeAdmin
)

func (m AppMode) String() string {
	switch m {
	case ModeLayouts:
		return "Layouts"
	case ModeAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

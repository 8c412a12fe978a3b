package ui

// FocusManager tracks which panel has keyboard focus and rotates it over the
// visible panels.
type FocusManager struct {
	Current  string   // ID of the focused panel
	Order    []string // rotation order, the visible panels as rendered
	OnChange func(from, to string)
}

// SetOrder replaces the rotation order. Focus stays on Current when it is
// still present, otherwise it moves to the first entry (or nothing).
func (f *FocusManager) SetOrder(order []string) {
	f.Order = append(f.Order[:0], order...)
	if f.index(f.Current) >= 0 {
		return
	}
	next := ""
	if len(f.Order) > 0 {
		next = f.Order[0]
	}
	f.set(next)
}

// Next advances focus to the next panel, wrapping around.
func (f *FocusManager) Next() string {
	if len(f.Order) == 0 {
		return ""
	}
	idx := f.index(f.Current)
	f.set(f.Order[(idx+1)%len(f.Order)])
	return f.Current
}

// Prev moves focus to the previous panel, wrapping around.
func (f *FocusManager) Prev() string {
	if len(f.Order) == 0 {
		return ""
	}
	idx := f.index(f.Current) - 1
	if idx < 0 {
		idx = len(f.Order) - 1
	}
	f.set(f.Order[idx])
	return f.Current
}

// SetFocus focuses id. Returns false if id is not in the order.
func (f *FocusManager) SetFocus(id string) bool {
	if f.index(id) < 0 {
		return false
	}
	f.set(id)
	return true
}

func (f *FocusManager) set(id string) {
	from := f.Current
	f.Current = id
	if f.OnChange != nil && from != id {
		f.OnChange(from, id)
	}
}

func (f *FocusManager) index(id string) int {
	for i, o := range f.Order {
		if o == id {
			return i
		}
	}
	return -1
}

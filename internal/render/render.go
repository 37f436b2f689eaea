// Package render defines the collaborator surfaces the coordination core draws
// on: the recognition view, the status indicator, list/table sinks, and modal
// transitions. Implementations are UI glue and carry no contract beyond
// succeeding or reporting failure to their own caller.
package render

// HistoryRow is one check-in shown in the detail view, in the order received.
type HistoryRow struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

// UserDetail holds the fields presented for one recognized subject.
type UserDetail struct {
	Name                 string       `json:"name"`
	RollNumber           string       `json:"roll_number"`
	Department           string       `json:"department,omitempty"`
	Role                 string       `json:"role,omitempty"`
	AttendancePercentage float64      `json:"attendance_percentage"`
	History              []HistoryRow `json:"history"`
}

// UserRow is one entry in the registered-user list.
type UserRow struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// View renders recognition results on the kiosk screen. The presenter calls
// ShowAcknowledgment when a subject is announced, then reveals the populated
// detail view, and hides it again on dismissal.
type View interface {
	SetUserDetail(d UserDetail)
	ShowAcknowledgment()
	HideAcknowledgment()
	ShowUserDetail()
	HideUserDetail()
}

// Indicator reflects the transient recognition status as a visual class plus
// a text message. Set replaces any previous styling entirely.
type Indicator interface {
	Set(status, message string)
	Clear()
}

// UserList renders the registered-user listing.
type UserList interface {
	RenderUsers(users []UserRow)
}

// Modals shows and hides named overlays with a transition.
type Modals interface {
	Show(name string)
	Hide(name string)
}

// Modal names used by the stock view.
const (
	ModalAcknowledgment = "tick-overlay"
	ModalUserDetail     = "user-recognition-modal"
)

// ScreenView adapts the View contract onto modal primitives, keeping the last
// detail it was given so the concrete UI can read it back.
type ScreenView struct {
	Modals Modals

	detail UserDetail
}

// SetUserDetail stores the fields for the detail view.
func (v *ScreenView) SetUserDetail(d UserDetail) {
	v.detail = d
}

// Detail returns the most recently set detail fields.
func (v *ScreenView) Detail() UserDetail {
	return v.detail
}

func (v *ScreenView) ShowAcknowledgment() { v.Modals.Show(ModalAcknowledgment) }
func (v *ScreenView) HideAcknowledgment() { v.Modals.Hide(ModalAcknowledgment) }
func (v *ScreenView) ShowUserDetail()     { v.Modals.Show(ModalUserDetail) }
func (v *ScreenView) HideUserDetail()     { v.Modals.Hide(ModalUserDetail) }

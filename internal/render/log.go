package render

import "log"

// LogModals logs modal transitions. It is the default when no screen driver is
// attached, which keeps a headless kiosk observable.
type LogModals struct{}

// Show logs the overlay being revealed.
func (LogModals) Show(name string) { log.Printf("ui: show %s", name) }

// Hide logs the overlay being hidden.
func (LogModals) Hide(name string) { log.Printf("ui: hide %s", name) }

// LogIndicator logs status indicator updates.
type LogIndicator struct{}

// Set logs the replacement status class and message.
func (LogIndicator) Set(status, message string) { log.Printf("ui: status %s: %s", status, message) }

// Clear logs the indicator reverting to neutral.
func (LogIndicator) Clear() { log.Println("ui: status cleared") }

// LogUserList logs the user listing size.
type LogUserList struct{}

// RenderUsers logs how many users the listing holds.
func (LogUserList) RenderUsers(users []UserRow) { log.Printf("ui: user list (%d entries)", len(users)) }

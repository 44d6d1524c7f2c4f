package models

import "time"

// RecordedActionType is the kind of user interaction the recorder captured.
type RecordedActionType string

const (
	ActionClick      RecordedActionType = "click"
	ActionInput      RecordedActionType = "input"
	ActionCheckbox   RecordedActionType = "checkbox"
	ActionRadio      RecordedActionType = "radio"
	ActionSelect     RecordedActionType = "select"
	ActionFileUpload RecordedActionType = "file-upload"
	ActionSubmit     RecordedActionType = "submit"
	ActionKeypress   RecordedActionType = "keypress"
	ActionNavigate   RecordedActionType = "navigate"
)

// ElementTarget identifies the DOM element a recorded action acted on, with
// enough redundancy (tag, selectors, text) to re-locate it later even if the
// page has since changed.
type ElementTarget struct {
	TagName   string             `json:"tag_name"`
	Selectors []SelectorStrategy `json:"selectors,omitempty"`
	Text      string             `json:"text,omitempty"`
	AriaLabel string             `json:"aria_label,omitempty"`
}

// Position is a viewport-relative pointer position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NetworkEffect summarizes network activity observed during an action's
// verification window.
type NetworkEffect struct {
	RequestCount int      `json:"request_count"`
	URLs         []string `json:"urls,omitempty"`
}

// FocusEffect records a focus change observed during verification.
type FocusEffect struct {
	NewFocusTagName string `json:"new_focus_tag_name"`
}

// ScrollEffect records a scroll-position change observed during
// verification.
type ScrollEffect struct {
	DeltaX float64 `json:"delta_x"`
	DeltaY float64 `json:"delta_y"`
}

// ActionEffects is populated only once verification completes; Summary is
// always set, the rest only when the corresponding effect was detected.
type ActionEffects struct {
	Summary string         `json:"summary"`
	Network *NetworkEffect `json:"network,omitempty"`
	Focus   *FocusEffect   `json:"focus,omitempty"`
	Scroll  *ScrollEffect  `json:"scroll,omitempty"`
}

// RecordedAction is one user interaction captured by the in-page tracker.
// It is emitted to observers only after verification completes, at which
// point Verified is always true.
type RecordedAction struct {
	Type             RecordedActionType `json:"type"`
	Timestamp        time.Time          `json:"timestamp"`
	Target           *ElementTarget     `json:"target,omitempty"`
	Value            string             `json:"value,omitempty"`
	Position         *Position          `json:"position,omitempty"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	Verified         bool               `json:"verified"`
	VerificationTime time.Duration      `json:"verification_time,omitempty"`
	Effects          *ActionEffects     `json:"effects,omitempty"`
}

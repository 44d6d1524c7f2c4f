package models

import "time"

// Rect is an element bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SelectorStrategy is one candidate selector with a confidence score.
type SelectorStrategy struct {
	Kind       string  `json:"kind"` // id, testid, aria_label, role_name, text, css, xpath
	Value      string  `json:"value"`
	Confidence int     `json:"confidence"` // 0-100
}

// ElementAttributes holds the attributes DOM Pruner retains for an element.
type ElementAttributes struct {
	ID          string `json:"id,omitempty"`
	Class       string `json:"class,omitempty"`
	Role        string `json:"role,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Href        string `json:"href,omitempty"`
	TestID      string `json:"test_id,omitempty"`
}

// InteractiveElement is a pruned, scored DOM node retained because it is
// plausibly actionable. Immutable once captured.
type InteractiveElement struct {
	Tag           string             `json:"tag"`
	Selectors     []SelectorStrategy `json:"selectors"`
	BestSelector  SelectorStrategy   `json:"best_selector"`
	Score         int                `json:"score"`
	Rect          Rect               `json:"rect"`
	Attributes    ElementAttributes  `json:"attributes"`
	Text          string             `json:"text,omitempty"` // truncated <= 100 chars
	IsVisible     bool               `json:"is_visible"`
	IsInteractive bool               `json:"is_interactive"`
}

// PageMetadata describes the page at the moment of a snapshot.
type PageMetadata struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	ReadyState     string  `json:"ready_state"`
	ScrollX        float64 `json:"scroll_x"`
	ScrollY        float64 `json:"scroll_y"`
	ViewportWidth  int     `json:"viewport_width"`
	ViewportHeight int     `json:"viewport_height"`
}

// A11yNode is one node of the accessibility tree. Only nodes with a
// resolvable semantic role are included.
type A11yNode struct {
	Role        string     `json:"role"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Value       string     `json:"value,omitempty"`
	Focused     bool       `json:"focused,omitempty"`
	Disabled    bool       `json:"disabled,omitempty"`
	Children    []A11yNode `json:"children,omitempty"`
}

// ConsoleLevel is the severity of a console entry.
type ConsoleLevel string

const (
	ConsoleLog   ConsoleLevel = "log"
	ConsoleInfo  ConsoleLevel = "info"
	ConsoleWarn  ConsoleLevel = "warning"
	ConsoleError ConsoleLevel = "error"
	ConsoleDebug ConsoleLevel = "debug"
)

// ConsoleEntry is a normalized console/log message, regardless of whether it
// originated from Runtime.consoleAPICalled or Log.entryAdded.
type ConsoleEntry struct {
	Level     ConsoleLevel `json:"level"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source,omitempty"`
}

// NetworkEntry is a normalized network request/response/failure record.
type NetworkEntry struct {
	URL       string        `json:"url"`
	Method    string        `json:"method"`
	Type      string        `json:"type"` // Document, XHR, Fetch, Ping, ...
	Status    int           `json:"status,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Failed    bool          `json:"failed,omitempty"`
	ErrorText string        `json:"error_text,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ElementCounts summarizes how many elements a snapshot saw.
type ElementCounts struct {
	Total       int `json:"total"`
	Interactive int `json:"interactive"`
	Visible     int `json:"visible"`
}

// VisualContext is the optional screenshot/description attached to a
// snapshot when requested.
type VisualContext struct {
	ScreenshotBase64 string    `json:"screenshot_base64,omitempty"`
	Description      string    `json:"description,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// BrowserContext is a single, internally consistent snapshot of a live page:
// the bundle the ReAct engine observes and the LLM reasons over.
type BrowserContext struct {
	Page               PageMetadata          `json:"page"`
	InteractiveElements []InteractiveElement `json:"interactive_elements,omitempty"`
	AccessibilityTree  *A11yNode             `json:"accessibility_tree,omitempty"`
	ConsoleLogs        []ConsoleEntry        `json:"console_logs,omitempty"`
	NetworkActivity     []NetworkEntry       `json:"network_activity,omitempty"`
	ElementCounts      ElementCounts         `json:"element_counts"`
	Visual             *VisualContext        `json:"visual,omitempty"`
	CapturedAt         time.Time             `json:"captured_at"`
}

package models

// FontSize is a size with its CSS unit.
type FontSize struct {
	Size int    `json:"size"`
	Unit string `json:"unit"`
}

// Preferences are the editor settings stored in plaintext on the user record.
type Preferences struct {
	Theme              string   `json:"theme"`
	FontSize           FontSize `json:"fontSize"`
	FontFamily         string   `json:"fontFamily"`
	Language           string   `json:"language"`
	AutoSave           bool     `json:"autoSave"`
	TabSize            int      `json:"tabSize"`
	Autocomplete       bool     `json:"autocomplete"`
	ShowSuggestions    bool     `json:"showSuggestions"`
	SyntaxHighlighting bool     `json:"syntaxHighlighting"`
	ShowLineNumbers    bool     `json:"showLineNumbers"`
}

// DefaultPreferences returns the settings assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              "dark",
		FontSize:           FontSize{Size: 14, Unit: "px"},
		FontFamily:         "monospace",
		Language:           "en",
		AutoSave:           false,
		TabSize:            4,
		Autocomplete:       true,
		ShowSuggestions:    true,
		SyntaxHighlighting: true,
		ShowLineNumbers:    true,
	}
}

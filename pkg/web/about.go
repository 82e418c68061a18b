package web

// About is the content of the about screen.
type About struct {
	Title    string `json:"title"`
	Version  string `json:"version"`
	Author   string `json:"author"`
	Summary  string `json:"summary"`
	Warning  string `json:"warning"`
	Feedback string `json:"feedback"`
}

// DefaultAbout returns the shipped about text.
func DefaultAbout() About {
	return About{
		Title:    "NavEye Assist",
		Version:  "1.0.0",
		Author:   "Kazi Rafee",
		Summary:  "This app helps visually impaired users navigate by announcing detected objects using the camera.",
		Warning:  "Note: This app in no way is a substitute for appropriate vision equipment.",
		Feedback: "Issues or suggestions? Please let us know by filling out the form.",
	}
}

package camera

import "sort"

// Presets trade detection accuracy against upload size.
var Presets = map[string]Config{
	// Small uploads for slow mobile links.
	"low": {
		Width:      640,
		Height:     480,
		MaxWidth:   320,
		Quality:    40,
		PreviewFPS: 1,
	},
	// Matches DefaultConfig.
	"default": {
		Width:      640,
		Height:     480,
		MaxWidth:   640,
		Quality:    50,
		PreviewFPS: 2,
	},
	// Better small-object recall at the cost of larger requests.
	"high": {
		Width:      1280,
		Height:     720,
		MaxWidth:   1280,
		Quality:    80,
		PreviewFPS: 2,
	},
}

// ApplyPreset copies the resolution and quality fields of the named preset
// onto cfg, leaving the source selection untouched. Returns false for unknown names.
func ApplyPreset(cfg *Config, name string) bool {
	p, ok := Presets[name]
	if !ok {
		return false
	}
	cfg.Width = p.Width
	cfg.Height = p.Height
	cfg.MaxWidth = p.MaxWidth
	cfg.Quality = p.Quality
	cfg.PreviewFPS = p.PreviewFPS
	return true
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package config loads client profiles.
//
// A profile is a JSON file in the config directory naming the editor's
// default grid size, the canvas layout and bounds, the default playback speed
// and optional palette overrides:
//
//	{
//	  "name": "large",
//	  "description": "Big mazes on a hi-dpi canvas",
//	  "editor":   {"rows": 41, "cols": 41},
//	  "canvas":   {"width": 820, "dpr": 2, "max_size": 800},
//	  "playback": {"speed_ms": 10},
//	  "palette":  {"visited": "#4444ff99"}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	profile, err := manager.Resolve("large")
//	editorOpts := profile.EditorOptions()
//
// default.json is the default profile when present, otherwise the first
// valid file, otherwise a built-in 15x15 profile.
package config

// Package assets holds data compiled into the server binary.
package assets

import (
	"embed"
)

//go:embed categories.json
var FS embed.FS

// CategoryPack returns the raw offline category pack:
// a JSON array of {"id", "title", "clues": [{"question", "answer"}]}.
func CategoryPack() ([]byte, error) {
	return FS.ReadFile("categories.json")
}

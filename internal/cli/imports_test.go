package cli

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Packages loaded by the store commands and the viewer must not import the
// SDL wrapper, whose init fails without the shared library.
func TestNoSDLImport(t *testing.T) {
	dirs := []string{".", "../gamepad", "../hub", "../server", "../session", "../tray", "../config"}
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		require.NoError(t, err)
		require.NotEmpty(t, files, dir)
		for _, file := range files {
			f, err := parser.ParseFile(token.NewFileSet(), file, nil, parser.ImportsOnly)
			require.NoError(t, err)
			for _, imp := range f.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				require.NoError(t, err)
				assert.False(t, strings.Contains(path, "purego-sdl3"), "%s imports %s", file, path)
				assert.NotEqual(t, "github.com/thornpw/steuer/internal/gamepad/joystick", path, file)
			}
		}
	}
}

package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/fbkclanna/featlint/internal/manifest"
)

// Workspace creates a workspace in a temp directory with the given member
// manifests, keyed by their directory relative to the root. The workspace
// manifest lists every member directory. Returns the root.
func Workspace(t *testing.T, members map[string]string, external ...manifest.External) string {
	t.Helper()
	root := t.TempDir()

	ws := &manifest.Workspace{Version: 1, Name: "test-ws", External: external}
	for dir, src := range members {
		WriteFile(t, root, filepath.Join(dir, manifest.PackageFile), src)
		ws.Members = append(ws.Members, filepath.ToSlash(dir))
	}
	sort.Strings(ws.Members)
	if len(ws.Members) == 0 {
		ws.Members = []string{"*"}
	}
	if err := manifest.Save(filepath.Join(root, manifest.WorkspaceFile), ws); err != nil {
		t.Fatalf("writing workspace manifest: %v", err)
	}
	return root
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}

// ReadFile returns the content of root/rel.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

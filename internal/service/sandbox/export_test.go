package sandbox

import (
	"errors"
	"testing"
)

func TestExportSnapshotsEnvironment(t *testing.T) {
	c := newTestController(&fakeSessionRepo{}, &fakeUsageRepo{})
	defer c.Close()

	if err := c.EditFile("react-web", "app-tsx", "edited"); err != nil {
		t.Fatalf("EditFile returned error: %v", err)
	}
	export, err := c.Export("react-web")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if export.Name != "React Web App" || export.Framework != "react" || export.Language != "typescript" {
		t.Fatalf("unexpected export header %+v", export)
	}
	if len(export.Files) != 2 || len(export.Dependencies) != 5 {
		t.Fatalf("expected full file and dependency sets, got %d files %d deps", len(export.Files), len(export.Dependencies))
	}
	if export.Files[0].Content != "edited" {
		t.Fatalf("export must reflect edits, got %q", export.Files[0].Content)
	}
	if export.Timestamp.IsZero() {
		t.Fatal("expected export timestamp")
	}
}

func TestExportFilenameSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"React Web App", "react-web-app-export.json"},
		{"Node.js Backend", "node.js-backend-export.json"},
		{"  Spaced   Name ", "spaced-name-export.json"},
	}
	for _, tc := range cases {
		got := (ProjectExport{Name: tc.name}).Filename()
		if got != tc.want {
			t.Fatalf("Filename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExportUnknownEnvironment(t *testing.T) {
	c := newTestController(&fakeSessionRepo{}, &fakeUsageRepo{})
	defer c.Close()

	if _, err := c.Export("missing"); !errors.Is(err, ErrEnvironmentNotFound) {
		t.Fatalf("expected ErrEnvironmentNotFound, got %v", err)
	}
}

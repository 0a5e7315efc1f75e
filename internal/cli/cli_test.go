package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/highlight"
	"github.com/matzehuels/kintree/pkg/tree"
	"github.com/matzehuels/kintree/pkg/tree/treetest"
)

func TestParseHighlight(t *testing.T) {
	tests := []struct {
		in      string
		want    highlight.Definition
		wantErr bool
	}{
		{in: "lineage:p1", want: highlight.Definition{Type: highlight.TypeLineage, Targets: []string{"p1"}}},
		{in: "relationship:p1, p2", want: highlight.Definition{Type: highlight.TypeRelationship, Targets: []string{"p1", "p2"}}},
		{in: "COUSIN_MARRIAGE:a,b", want: highlight.Definition{Type: highlight.TypeCousinMarriage, Targets: []string{"a", "b"}}},
		{in: "lineage", wantErr: true},
		{in: "lineage:", wantErr: true},
		{in: "ancestors:p1", wantErr: true},
		{in: "relationship:p1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHighlight(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidHighlight) {
					t.Fatalf("parseHighlight(%q) error = %v, want INVALID_HIGHLIGHT", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHighlight(%q) error: %v", tt.in, err)
			}
			if got.Type != tt.want.Type || strings.Join(got.Targets, ",") != strings.Join(tt.want.Targets, ",") {
				t.Errorf("parseHighlight(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseViewportFlag(t *testing.T) {
	r, err := parseViewportFlag("-10, 0, 20.5, 40")
	if err != nil {
		t.Fatalf("parseViewportFlag() error: %v", err)
	}
	if want := (tree.Rect{MinX: -10, MaxX: 20.5, MaxY: 40}); *r != want {
		t.Errorf("got = %+v, want %+v", *r, want)
	}
	if r, err := parseViewportFlag(""); r != nil || err != nil {
		t.Errorf("empty flag = %v, %v, want nil, nil", r, err)
	}
	for _, bad := range []string{"1,2,3", "a,b,c,d"} {
		if _, err := parseViewportFlag(bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parseViewportFlag(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "family.json")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, input, "")
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	want := []string{filepath.Join(dir, "family.svg"), filepath.Join(dir, "family.render.json")}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	out := filepath.Join(dir, "custom.out")
	paths, err = writeArtifacts(artifacts, []string{"svg"}, input, out)
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}
	if len(paths) != 1 || paths[0] != out {
		t.Errorf("paths = %v, want [%s]", paths, out)
	}
	if data, _ := os.ReadFile(out); string(data) != "<svg/>" {
		t.Errorf("output = %q, want <svg/>", data)
	}
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFamily(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := tree.Encode(f, treetest.Family(), "g"); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	input := writeFamily(t)
	out, err := run(t, "render", input, "--no-cache",
		"-l", "lineage:a1", "-l", "lineage:nobody", "-f", "svg,dot")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(out, "highlight 2 skipped") {
		t.Errorf("output does not report the skipped highlight:\n%s", out)
	}

	base := strings.TrimSuffix(input, ".json")
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !bytes.Contains(svg, []byte(`class="highlights"`)) {
		t.Error("svg has no highlight group")
	}
	if _, err := os.Stat(base + ".dot"); err != nil {
		t.Errorf("dot not written: %v", err)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	input := writeFamily(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad highlight", []string{"render", input, "--no-cache", "-l", "lineage"}, errors.ErrCodeInvalidHighlight},
		{"bad format", []string{"render", input, "--no-cache", "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"bad viewport", []string{"render", input, "--no-cache", "--viewport", "1,2"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestPathCommand(t *testing.T) {
	input := writeFamily(t)

	out, err := run(t, "path", input, "a1x")
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	for _, id := range []string{"a1x", "a1", "g"} {
		if !strings.Contains(out, id) {
			t.Errorf("output missing %s:\n%s", id, out)
		}
	}

	out, err = run(t, "path", input, "a1", "b1")
	if err != nil {
		t.Fatalf("dual path error: %v", err)
	}
	if !strings.Contains(out, "Common") || !strings.Contains(out, "2 and 2 generations up") {
		t.Errorf("output missing common ancestor:\n%s", out)
	}

	if _, err := run(t, "path", input, "nobody"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestFitCommand(t *testing.T) {
	input := writeFamily(t)
	out, err := run(t, "fit", input, "a1", "--width", "1024", "--height", "768")
	if err != nil {
		t.Fatalf("fit error: %v", err)
	}
	if !strings.Contains(out, "Scale") || !strings.Contains(out, "Translate") {
		t.Errorf("output missing transform:\n%s", out)
	}
	if _, err := run(t, "fit", input, "--width", "0"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero width error = %v, want INVALID_INPUT", err)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kintree.toml")
	c := New(io.Discard, LogInfo)

	exec := func(args ...string) (string, error) {
		root := c.RootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{"--config", path}, args...))
		err := root.Execute()
		return out.String(), err
	}

	if _, err := exec("config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := exec("config", "init"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("second init error = %v, want INVALID_CONFIG", err)
	}
	out, err := exec("config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(out, "capacity = 20") {
		t.Errorf("config show missing capacity:\n%s", out)
	}
}

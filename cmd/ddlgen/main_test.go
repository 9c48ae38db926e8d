package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := stdout.String(), "ddlgen dev (none)\n"; got != want {
		t.Fatalf("version output: got %q want %q", got, want)
	}
}

func TestRunGeneratesChangelog(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.graphql")
	sdl := "type Product { id: ID! name: String! }\ntype Query { product: Product }\n"
	if err := os.WriteFile(schemaPath, []byte(sdl), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	var stdout, stderr bytes.Buffer
	args := []string{
		"--schema.file", schemaPath,
		"--output.format", "sql",
		"--changeset.id", "init",
		"--changeset.author", "buddy",
		"--logging.level", "error",
	}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v (stderr: %s)", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"-- liquibase formatted sql",
		"-- changeset buddy:init",
		"CREATE TABLE `product`",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing schema file",
			args:    []string{"--output.format", "xml"},
			wantErr: "configuration validation failed",
		},
		{
			name:    "unknown output format",
			args:    []string{"--schema.file", "schema.graphql", "--output.format", "toml"},
			wantErr: "configuration validation failed",
		},
		{
			name:    "unknown flag",
			args:    []string{"--no-such-flag"},
			wantErr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args, &bytes.Buffer{}, &bytes.Buffer{})
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

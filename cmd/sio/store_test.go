package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if s, err := OpenStore(ctx, "", dir); err != nil || s != nil {
		t.Fatal(s, err)
	}
	if _, err := OpenStore(ctx, "floppy", dir); err == nil {
		t.Fatal("expected an error")
	}

	for kind, path := range map[string]string{
		"json":   filepath.Join(dir, "json"),
		"bolt":   filepath.Join(dir, "worlds.db"),
		"memory": "",
	} {
		s, err := OpenStore(ctx, kind, path)
		if err != nil {
			t.Fatal(kind, err)
		}
		w := world.NewSeeded(world.SeedFromString("test")).Set(core.Path{"x"}, value.Num(1))
		if err = s.Save(ctx, "w", w); err != nil {
			t.Fatal(kind, err)
		}
		w1, err := s.Load(ctx, "w")
		if err != nil {
			t.Fatal(kind, err)
		}
		if !w.Equal(w1) {
			t.Fatal(kind, w1)
		}
		if err = s.Close(ctx); err != nil {
			t.Fatal(kind, err)
		}
	}
}

package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	goplugin "plugin"
)

// NativeOpener opens Go shared objects built with -buildmode=plugin.
//
// A Go plugin cannot be unmapped once opened, so closing a native image only
// drops the host's references to it.
type NativeOpener struct{}

// Accepts implements Opener.
func (NativeOpener) Accepts(path string) bool {
	return filepath.Ext(path) == ".so"
}

// Open implements Opener.
func (NativeOpener) Open(ctx context.Context, path string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &nativeImage{p: p}, nil
}

type nativeImage struct {
	p *goplugin.Plugin
}

func (n *nativeImage) Lookup(name string) (any, bool) {
	if n.p == nil {
		return nil, false
	}
	sym, err := n.p.Lookup(name)
	if err != nil {
		return nil, false
	}
	return sym, true
}

func (n *nativeImage) Close() error {
	n.p = nil
	return nil
}

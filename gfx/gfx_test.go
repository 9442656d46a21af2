// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	"github.com/devblok/vbuf/gfx"
	"github.com/devblok/vbuf/gfx/gfxtest"
)

func TestVersionAtLeast(t *testing.T) {
	cases := []struct {
		version      gfx.Version
		major, minor int
		want         bool
	}{
		{gfx.Version{Major: 3, Minor: 3}, 3, 3, true},
		{gfx.Version{Major: 3, Minor: 4}, 3, 3, true},
		{gfx.Version{Major: 4, Minor: 0}, 3, 3, true},
		{gfx.Version{Major: 3, Minor: 2}, 3, 3, false},
		{gfx.Version{Major: 2, Minor: 9}, 3, 0, false},
		{gfx.Version{Major: 1, Minor: 0}, 1, 0, true},
	}
	for _, tc := range cases {
		if got := tc.version.AtLeast(tc.major, tc.minor); got != tc.want {
			t.Errorf("%v.AtLeast(%d, %d) = %t, want %t", tc.version, tc.major, tc.minor, got, tc.want)
		}
	}
}

func TestHasExtension(t *testing.T) {
	dev := gfxtest.NewDevice(gfxtest.WithExtensions(gfx.ExtInstancedArrays))
	if !gfx.HasExtension(dev, gfx.ExtInstancedArrays) {
		t.Error("expected instanced_arrays to be present")
	}
	if gfx.HasExtension(dev, gfx.ExtPersistentMapping) {
		t.Error("expected persistent_mapping to be absent")
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		fenceOff, fenceSize int
		off, size           int
		want                bool
	}{
		{0, 10, 0, 10, true},
		{0, 10, 5, 10, true},
		{0, 10, 10, 10, false},
		{10, 10, 0, 10, false},
		{10, 10, 0, 11, true},
		{0, 100, 50, 1, true},
	}
	for _, tc := range cases {
		fence := gfxtest.NewFence(tc.fenceOff, tc.fenceSize)
		if got := gfx.Overlaps(fence, tc.off, tc.size); got != tc.want {
			t.Errorf("Overlaps([%d,%d), [%d,%d)) = %t, want %t",
				tc.fenceOff, tc.fenceOff+tc.fenceSize, tc.off, tc.off+tc.size, got, tc.want)
		}
	}
}

func TestBufferKindString(t *testing.T) {
	if gfx.ArrayBuffer.String() != "array" {
		t.Errorf("bad array kind name: %s", gfx.ArrayBuffer)
	}
	if gfx.PixelPackBuffer.String() != "pixel-pack" {
		t.Errorf("bad pixel-pack kind name: %s", gfx.PixelPackBuffer)
	}
	if gfx.BufferKind(99).String() != "unknown" {
		t.Errorf("bad out-of-range kind name: %s", gfx.BufferKind(99))
	}
}

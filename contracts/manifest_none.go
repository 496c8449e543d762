//go:build !contracts

package contracts

import "github.com/blockberries/dasguard/registry"

var manifest = registry.MustManifest()

// Manifest returns the modules embedded in this build. This build
// embeds none.
func Manifest() *registry.Manifest { return manifest }

package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/mesh"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/resource"
	"github.com/Faultbox/trellis/internal/logger"
)

// Resources are the caches owning the scene's meshes and textures. Dropping
// the last reference frees the device copy.
type Resources struct {
	Meshes   *resource.Cache[*mesh.Mesh]
	Textures *resource.Cache[*material.Texture]
}

// NewResources creates caches whose destroy hooks release device memory.
func NewResources(r *renderer.Renderer) *Resources {
	return &Resources{
		Meshes: resource.NewCache("mesh", func(key string, m *mesh.Mesh) {
			if err := r.ReleaseMesh(m); err != nil {
				logger.Warn("releasing mesh", zap.String("key", key), zap.Error(err))
			}
		}),
		Textures: resource.NewCache("texture", func(key string, t *material.Texture) {
			if err := r.ReleaseTexture(t); err != nil {
				logger.Warn("releasing texture", zap.String("key", key), zap.Error(err))
			}
		}),
	}
}

// Mesh acquires the mesh named key, building it on first use.
func (r *Resources) Mesh(key string, build func() (*mesh.Mesh, error)) (*mesh.Mesh, error) {
	return r.Meshes.Acquire(key, build)
}

// Texture acquires the texture named key, building it on first use.
func (r *Resources) Texture(key string, build func() (*material.Texture, error)) (*material.Texture, error) {
	return r.Textures.Acquire(key, build)
}

// Close destroys everything regardless of holders.
func (r *Resources) Close() {
	r.Meshes.Clear()
	r.Textures.Clear()
}

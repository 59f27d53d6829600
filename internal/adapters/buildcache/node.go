package buildcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the build cache Graft node.
const NodeID graft.ID = "adapter.buildcache"

func init() {
	graft.Register(graft.Node[ports.BuildCacheOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BuildCacheOpener, error) {
			return NewOpener(), nil
		},
	})
}

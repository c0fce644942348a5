package media

import (
	"github.com/google/wire"

	"torilynq/config"
	"torilynq/internal/post"
	"torilynq/internal/story"
)

// ProvideStore returns a nil store when object storage is not configured;
// uploads are then disabled and deletes degrade to no-ops.
func ProvideStore(cfg *config.Config) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	return NewStore(cfg)
}

func ProvideHandler(store *Store) *Handler {
	if store == nil {
		return nil
	}
	return NewHandler(store)
}

func ProvidePostDeleter(store *Store) post.MediaDeleter {
	if store == nil {
		return Discard{}
	}
	return store
}

func ProvideStoryDeleter(store *Store) story.MediaDeleter {
	if store == nil {
		return Discard{}
	}
	return store
}

var Set = wire.NewSet(ProvideStore, ProvideHandler, ProvidePostDeleter, ProvideStoryDeleter)

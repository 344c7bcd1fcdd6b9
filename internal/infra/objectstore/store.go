package objectstore

import (
	"context"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
)

// Store keeps diagnosis images and uploaded advisory documents.
type Store interface {
	disease.ImageArchive
	PutObject(ctx context.Context, key string, data []byte, contentType, filename string) error
}

// Object is a stored blob with the metadata it was uploaded with.
type Object struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Package storage is the durable blob store the upload intake writes to.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
)

// ObjectStorage stores raw uploaded documents.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds the storage path for an upload:
// {ownerId}/{documentType}/{timestamp}.{ext}
func ObjectKey(ownerID uuid.UUID, dt constants.DocumentType, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s/%d.%s", ownerID, dt, at.UTC().UnixNano(), constants.NormalizeExt(ext))
}

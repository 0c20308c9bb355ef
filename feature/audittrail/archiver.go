package audittrail

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wangkanai/foundation/core/archive"
	"github.com/wangkanai/foundation/core/audit"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// refPrefix marks a state column holding an archive reference instead of
// an inline blob.
const refPrefix = "archive://"

// Archiver moves oversized state blobs to object storage, leaving an
// archive:// reference in the database column.
type Archiver struct {
	client    archive.Client
	bucket    string
	threshold int
	logger    *zap.Logger
}

// NewArchiver creates an archiver. Blobs larger than threshold bytes
// are offloaded; a non-positive threshold disables offloading.
func NewArchiver(client archive.Client, bucket string, threshold int, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{client: client, bucket: bucket, threshold: threshold, logger: logger}
}

// Offload replaces oversized blobs on the change set with archive
// references. The change set must already have its ID assigned.
func (a *Archiver) Offload(ctx context.Context, cs *audit.ChangeSet) error {
	if a.threshold <= 0 {
		return nil
	}
	if err := a.offloadSide(ctx, cs, &cs.OldValues, "old"); err != nil {
		return err
	}
	return a.offloadSide(ctx, cs, &cs.NewValues, "new")
}

func (a *Archiver) offloadSide(ctx context.Context, cs *audit.ChangeSet, blob **string, side string) error {
	if *blob == nil || len(**blob) <= a.threshold || strings.HasPrefix(**blob, refPrefix) {
		return nil
	}
	object := fmt.Sprintf("trails/%s/%s.json", cs.ID, side)
	data := **blob
	_, err := a.client.PutObject(ctx, a.bucket, object,
		strings.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("archive blob %s: %w", object, err)
	}
	ref := refPrefix + object
	*blob = &ref
	a.logger.Debug("audit trail: blob archived",
		zap.String("object", object), zap.Int("bytes", len(data)))
	return nil
}

// Resolve rewrites archive references on the change set back to inline
// blobs. Unresolvable references are left in place so callers still see
// where the data lives.
func (a *Archiver) Resolve(ctx context.Context, cs *audit.ChangeSet) error {
	if err := a.resolveSide(ctx, &cs.OldValues); err != nil {
		return err
	}
	return a.resolveSide(ctx, &cs.NewValues)
}

func (a *Archiver) resolveSide(ctx context.Context, blob **string) error {
	if *blob == nil || !strings.HasPrefix(**blob, refPrefix) {
		return nil
	}
	object := strings.TrimPrefix(**blob, refPrefix)
	rc, err := a.client.GetObject(ctx, a.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("fetch archived blob %s: %w", object, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read archived blob %s: %w", object, err)
	}
	s := string(data)
	*blob = &s
	return nil
}

// IsArchived reports whether a state column holds an archive reference.
func IsArchived(blob *string) bool {
	return blob != nil && strings.HasPrefix(*blob, refPrefix)
}

// Package archive keeps JSON copies of audit results and metrics snapshots
// in blob storage, laid out as <site>/<kind>/<id>.json.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// ErrNotFound is returned when an archived object does not exist.
var ErrNotFound = errors.New("archive: object not found")

const (
	kindAudits    = "audits"
	kindSnapshots = "snapshots"
)

// Backend is a flat key/value blob store.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound (possibly wrapped) for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// StorageClient archives audits and snapshots per site.
type StorageClient interface {
	PutAudit(ctx context.Context, siteID, auditID string, data []byte) error
	GetAudit(ctx context.Context, siteID, auditID string) ([]byte, error)
	PutSnapshot(ctx context.Context, siteID, snapshotID string, data []byte) error
	GetSnapshot(ctx context.Context, siteID, snapshotID string) ([]byte, error)
}

// Archive implements StorageClient over any Backend.
type Archive struct {
	backend Backend
}

// NewArchive wraps a Backend.
func NewArchive(b Backend) *Archive {
	return &Archive{backend: b}
}

func objectKey(siteID, kind, id string) string {
	return siteID + "/" + kind + "/" + id + ".json"
}

// PutAudit stores an audit result blob.
func (a *Archive) PutAudit(ctx context.Context, siteID, auditID string, data []byte) error {
	return a.backend.Put(ctx, objectKey(siteID, kindAudits, auditID), data)
}

// GetAudit retrieves an audit result blob.
func (a *Archive) GetAudit(ctx context.Context, siteID, auditID string) ([]byte, error) {
	return a.backend.Get(ctx, objectKey(siteID, kindAudits, auditID))
}

// PutSnapshot stores a metrics snapshot blob.
func (a *Archive) PutSnapshot(ctx context.Context, siteID, snapshotID string, data []byte) error {
	return a.backend.Put(ctx, objectKey(siteID, kindSnapshots, snapshotID), data)
}

// GetSnapshot retrieves a metrics snapshot blob.
func (a *Archive) GetSnapshot(ctx context.Context, siteID, snapshotID string) ([]byte, error) {
	return a.backend.Get(ctx, objectKey(siteID, kindSnapshots, snapshotID))
}

// LoadSnapshot decodes an archived snapshot.
func LoadSnapshot(ctx context.Context, s StorageClient, siteID, snapshotID string) (*metrics.Snapshot, error) {
	data, err := s.GetSnapshot(ctx, siteID, snapshotID)
	if err != nil {
		return nil, err
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snapshotID, err)
	}
	return &snap, nil
}

// Config selects and configures a backend.
type Config struct {
	Backend   string // "local" (default), "s3" or "gcs"
	Path      string // local root directory
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// New builds the Archive described by cfg.
func New(ctx context.Context, cfg Config) (*Archive, error) {
	switch cfg.Backend {
	case "", "local":
		path := cfg.Path
		if path == "" {
			path = "./data/archive"
		}
		return NewArchive(NewLocalBackend(path)), nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 archive requires a bucket")
		}
		b, err := NewS3Backend(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return NewArchive(b), nil
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("gcs archive requires a bucket")
		}
		b, err := NewGCSBackend(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return NewArchive(b), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

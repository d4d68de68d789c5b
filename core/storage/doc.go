// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client; sync runs use it to archive their JSON reports.
// Both AWS S3 and self-hosted MinIO are supported.
//
// # Client Interface
//
// The Client interface abstracts the underlying provider so storage interactions
// can be mocked in unit tests (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: EnsureBucket creates the report bucket on first use.
//   - PutObject: uploads a report.
//   - GetObject: retrieves a report as a stream.
//   - ListObjects: lists reports under a prefix.
//   - RemoveObjects: prunes reports beyond the retention count.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage

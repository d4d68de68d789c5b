package tagsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"performer-tag-sync/core/reconcile"
	"performer-tag-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/singleflight"
)

// ErrReportNotFound is returned when no archived report has the requested run id.
var ErrReportNotFound = errors.New("report not found")

// ReportInfo describes one archived report.
type ReportInfo struct {
	RunID        string    `json:"run_id"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ReportArchive stores run reports as JSON objects under a prefix.
type ReportArchive struct {
	client    storage.Client
	bucket    string
	prefix    string
	retention int

	// group coalesces concurrent reads of the same listing or report
	group singleflight.Group
}

// NewReportArchive creates an archive. retention <= 0 keeps every report.
func NewReportArchive(client storage.Client, bucket, prefix string, retention int) *ReportArchive {
	return &ReportArchive{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		retention: retention,
	}
}

// Key returns the object key of a run's report.
func (a *ReportArchive) Key(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Save uploads result and prunes reports beyond the retention count.
func (a *ReportArchive) Save(ctx context.Context, result *reconcile.RunResult) (string, error) {
	if err := storage.EnsureBucket(ctx, a.client, a.bucket, ""); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := a.Key(result.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	if err := a.prune(ctx); err != nil {
		return key, err
	}
	return key, nil
}

// List returns the archived reports, newest first.
func (a *ReportArchive) List(ctx context.Context) ([]ReportInfo, error) {
	v, err, _ := a.group.Do("list", func() (any, error) {
		return a.list(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]ReportInfo), nil
}

func (a *ReportArchive) list(ctx context.Context) ([]ReportInfo, error) {
	var reports []ReportInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.prefix + "/", Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		reports = append(reports, ReportInfo{
			RunID:        strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].LastModified.After(reports[j].LastModified)
	})
	return reports, nil
}

// Get downloads the report of a run.
func (a *ReportArchive) Get(ctx context.Context, runID string) (*reconcile.RunResult, error) {
	if runID == "" || strings.ContainsAny(runID, "/\\") {
		return nil, ErrReportNotFound
	}

	v, err, _ := a.group.Do("get:"+runID, func() (any, error) {
		return a.get(ctx, runID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*reconcile.RunResult), nil
}

func (a *ReportArchive) get(ctx context.Context, runID string) (*reconcile.RunResult, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, a.Key(runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, notFoundOr(err)
	}
	defer obj.Close()

	var result reconcile.RunResult
	if err := json.NewDecoder(obj).Decode(&result); err != nil {
		return nil, notFoundOr(err)
	}
	return &result, nil
}

// prune removes the oldest reports beyond the retention count.
func (a *ReportArchive) prune(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}

	reports, err := a.list(ctx)
	if err != nil {
		return err
	}
	if len(reports) <= a.retention {
		return nil
	}

	stale := reports[a.retention:]
	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, r := range stale {
		objectsCh <- minio.ObjectInfo{Key: r.Key}
	}
	close(objectsCh)

	var failed []string
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", rerr.ObjectName, rerr.Err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to prune %d reports: %v", len(failed), failed)
	}
	return nil
}

func notFoundOr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrReportNotFound
	}
	return fmt.Errorf("failed to read report: %w", err)
}

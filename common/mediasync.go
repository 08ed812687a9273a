package common

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var syncableExts = map[string]bool{".mp4": true, ".webm": true}

// SyncMedia pulls clips under bucket/prefix into mediaDir, preserving the
// category directory layout. Objects already present locally are skipped;
// a failed download skips that clip and continues.
func SyncMedia(ctx context.Context, s3c *S3, bucket, prefix, mediaDir string) (int, error) {
	synced := 0
	var token *string

	for {
		out, err := s3c.List(ctx, bucket, prefix, 1000, token)
		if err != nil {
			return synced, err
		}

		for _, obj := range out.Contents {
			key := *obj.Key
			rel := strings.TrimPrefix(key, prefix)
			if rel == "" || strings.HasSuffix(rel, "/") {
				continue
			}
			if !syncableExts[strings.ToLower(filepath.Ext(rel))] {
				continue
			}

			local := filepath.Join(mediaDir, filepath.FromSlash(rel))
			if _, err := os.Stat(local); err == nil {
				continue
			}

			if err := downloadObject(ctx, s3c, bucket, key, local); err != nil {
				log.Printf("⚠️  Media sync failed for %s: %v", key, err)
				continue
			}
			synced++
		}

		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	return synced, nil
}

func downloadObject(ctx context.Context, s3c *S3, bucket, key, local string) error {
	body, err := s3c.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}

	tmp := local + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, local)
}

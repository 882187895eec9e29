package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/gahshomar/internal/config"
	"github.com/dukerupert/gahshomar/internal/database"
)

var sqliteHeader = []byte("SQLite format 3\x00")

var ErrNotSnapshot = errors.New("file is not a calendar database snapshot")

// Uploader is the part of the S3 client used for uploads.
type Uploader interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client returns a client for an S3-compatible endpoint with static
// credentials and path-style addressing.
func NewS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// FileName returns the conventional snapshot name for t.
func FileName(t time.Time, encrypted bool) string {
	name := "gahshomar-" + t.UTC().Format("2006-01-02T150405Z") + ".db"
	if encrypted {
		name += ".enc"
	}
	return name
}

// Snapshot writes a consistent copy of db to dst using VACUUM INTO, encrypted
// when passphrase is set. It returns the size written.
func Snapshot(ctx context.Context, db *sql.DB, dst, passphrase string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".snapshot-*.db")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to overwrite.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", tmpPath); err != nil {
		return 0, fmt.Errorf("vacuum into: %w", err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	if passphrase != "" {
		if data, err = Encrypt(data, passphrase); err != nil {
			return 0, fmt.Errorf("encrypt snapshot: %w", err)
		}
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	return int64(len(data)), nil
}

// Restore decrypts src if needed, checks that it holds the calendar schema
// and replaces dst with it. The service must not be running against dst.
func Restore(ctx context.Context, src, dst, passphrase string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if IsEncrypted(data) {
		if passphrase == "" {
			return fmt.Errorf("restore %s: snapshot is encrypted and no passphrase was given", src)
		}
		if data, err = Decrypt(data, passphrase); err != nil {
			return err
		}
	}
	if !bytes.HasPrefix(data, sqliteHeader) {
		return ErrNotSnapshot
	}

	staged := dst + ".restore"
	if err := os.WriteFile(staged, data, 0o600); err != nil {
		return fmt.Errorf("stage restore: %w", err)
	}
	if err := verify(ctx, staged); err != nil {
		removeDB(staged)
		return err
	}

	removeDB(dst)
	if err := os.Rename(staged, dst); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func verify(ctx context.Context, path string) error {
	db, err := database.OpenNoMigrate(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_items").Scan(&n); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return ErrNotSnapshot
		}
		return fmt.Errorf("check snapshot: %w", err)
	}
	return nil
}

// removeDB deletes a database file with its WAL and shared-memory files.
func removeDB(path string) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}
}

// Upload puts the file at path into bucket under gahshomar/<name> and
// returns the object key.
func Upload(ctx context.Context, client Uploader, bucket, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	key := "gahshomar/" + filepath.Base(path)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/avolkov/diaryvault/internal/server/config"
	"github.com/avolkov/diaryvault/internal/server/repositories/entries"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// backupPayload is the exported document. Content stays encrypted: the
// backup is only useful to someone who can also derive the user's key.
type backupPayload struct {
	UserID     string        `json:"user_id"`
	ExportedAt time.Time     `json:"exported_at"`
	Entries    []backupEntry `json:"entries"`
}

type backupEntry struct {
	EntryDate string `json:"entry_date"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// BackupService exports a user's (still encrypted) entries to S3-compatible
// object storage. Administrative path only.
type BackupService struct {
	entries entries.Repository
	config  *sc.Config
}

func NewBackupService(repo entries.Repository, config *sc.Config) *BackupService {
	return &BackupService{entries: repo, config: config}
}

func (s *BackupService) storageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("backups/%s/%d/%02d/%02d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *BackupService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads the user's entries as one JSON object and returns the
// object key.
func (s *BackupService) Export(ctx context.Context, userID string) (string, error) {
	rows, err := s.entries.ListAll(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list entries: %w", err)
	}

	payload := backupPayload{
		UserID:     userID,
		ExportedAt: time.Now().UTC(),
		Entries:    make([]backupEntry, 0, len(rows)),
	}
	for _, row := range rows {
		payload.Entries = append(payload.Entries, backupEntry{
			EntryDate: row.EntryDate,
			Content:   row.Content,
			WordCount: row.WordCount,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("init s3 client: %w", err)
	}

	key := s.storageKey(userID)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}

	return key, nil
}

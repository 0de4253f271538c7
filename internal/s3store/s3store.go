// Package s3store maps user records onto an S3-compatible object store:
// one JSON object per user, timestamped backup snapshots, and a minimal
// connectivity probe.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

// Object key prefixes. The chat-history prefix holds per-session exports and
// is not part of the hybrid save path.
const (
	userDataPrefix    = "users/"
	chatHistoryPrefix = "chat-history/"
	backupPrefix      = "backups/"
)

// Config carries the settings needed to reach the bucket.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the AWS endpoint for MinIO-style deployments.
	Endpoint    string
	Environment string
}

// s3API is the slice of the S3 client this store uses. *s3.Client satisfies it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store is the object-storage adapter.
type Store struct {
	api    s3API
	bucket string
	region string
	env    string
	log    *slog.Logger
	now    func() time.Time
}

// NewStore builds a Store from static credentials, optionally pointed at a
// custom endpoint.
func NewStore(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		api:    client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		env:    cfg.Environment,
		log:    log,
		now:    time.Now,
	}, nil
}

// UserKey returns the object key for one user record.
func UserKey(userID string) string {
	return userDataPrefix + userID + ".json"
}

// ChatHistoryKey returns the object key for one exported chat session.
func ChatHistoryKey(userID, sessionID string) string {
	return chatHistoryPrefix + userID + "/" + sessionID + ".json"
}

// BackupKey returns the object key for a snapshot taken at the given time.
// Colons and dots in the timestamp are replaced so the key stays portable.
func BackupKey(t time.Time) string {
	ts := user.Timestamp(t)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return backupPrefix + "users-backup-" + ts + ".json"
}

// UploadJSON stores v as a JSON object under key, requesting server-side
// encryption at rest.
func (s *Store) UploadJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		s.log.Error("s3 upload failed", "key", key, "error", err)
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}

// DownloadJSON fetches the object under key into out. A missing key is not an
// error: it returns (false, nil).
func (s *Store) DownloadJSON(ctx context.Context, key string, out any) (bool, error) {
	resp, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return false, nil
		}
		s.log.Error("s3 download failed", "key", key, "error", err)
		return false, fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return true, nil
}

// DeleteObject removes the object under key.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error("s3 delete failed", "key", key, "error", err)
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ObjectExists probes for the object under key without fetching it.
func (s *Store) ObjectExists(ctx context.Context, key string) bool {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// SaveUser writes one user record to its object.
func (s *Store) SaveUser(ctx context.Context, u user.User) error {
	return s.UploadJSON(ctx, UserKey(u.ID), u)
}

// LoadUser fetches one user record, or nil when absent.
func (s *Store) LoadUser(ctx context.Context, userID string) (*user.User, error) {
	var u user.User
	found, err := s.DownloadJSON(ctx, UserKey(userID), &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// DeleteUser removes one user record object.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.DeleteObject(ctx, UserKey(userID))
}

// LoadAllUsers lists every object under the user prefix and fetches each in
// turn, following continuation tokens until the listing is exhausted.
func (s *Store) LoadAllUsers(ctx context.Context) ([]user.User, error) {
	users := []user.User{}

	var continuation *string
	for {
		resp, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(userDataPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			s.log.Error("s3 listing failed", "prefix", userDataPrefix, "error", err)
			return nil, fmt.Errorf("list %s: %w", userDataPrefix, err)
		}

		for _, object := range resp.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			var u user.User
			found, err := s.DownloadJSON(ctx, key, &u)
			if err != nil {
				return nil, err
			}
			if found {
				users = append(users, u)
			}
		}

		if !aws.ToBool(resp.IsTruncated) {
			break
		}
		continuation = resp.NextContinuationToken
	}

	s.log.Info("loaded users from s3", "count", len(users))
	return users, nil
}

// SaveChatSession exports one chat session under the chat-history prefix.
func (s *Store) SaveChatSession(ctx context.Context, userID string, session user.ChatSession) error {
	return s.UploadJSON(ctx, ChatHistoryKey(userID, session.ID), session)
}

// LoadChatSession fetches one exported chat session, or nil when absent.
func (s *Store) LoadChatSession(ctx context.Context, userID, sessionID string) (*user.ChatSession, error) {
	var session user.ChatSession
	found, err := s.DownloadJSON(ctx, ChatHistoryKey(userID, sessionID), &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// DeleteChatSession removes one exported chat session object.
func (s *Store) DeleteChatSession(ctx context.Context, userID, sessionID string) error {
	return s.DeleteObject(ctx, ChatHistoryKey(userID, sessionID))
}

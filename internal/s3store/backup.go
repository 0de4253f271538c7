package s3store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

// Backup is the envelope written for a full-collection snapshot.
type Backup struct {
	Timestamp string         `json:"timestamp"`
	UserCount int            `json:"userCount"`
	Users     []user.User    `json:"users"`
	Metadata  BackupMetadata `json:"metadata"`
}

// BackupMetadata tags a snapshot with its origin.
type BackupMetadata struct {
	Version     string `json:"version"`
	Source      string `json:"source"`
	Environment string `json:"environment"`
}

// CreateBackup uploads a one-shot snapshot of the full collection under a
// timestamped key and returns that key. Snapshots are full copies, not
// differential; retried backups create new objects rather than overwriting.
func (s *Store) CreateBackup(ctx context.Context, users []user.User) (string, error) {
	now := s.now()
	key := BackupKey(now)

	backup := Backup{
		Timestamp: user.Timestamp(now),
		UserCount: len(users),
		Users:     users,
		Metadata: BackupMetadata{
			Version:     "1.0",
			Source:      "mental-health-app",
			Environment: s.env,
		},
	}

	if err := s.UploadJSON(ctx, key, backup); err != nil {
		return "", err
	}

	s.log.Info("created backup", "key", key, "userCount", len(users))
	return key, nil
}

// Health reports the outcome of a connectivity probe.
type Health struct {
	Status  string         `json:"status"` // healthy | unhealthy
	Details map[string]any `json:"details"`
}

// HealthCheck performs a minimal listing call against the bucket. It never
// returns an error; failures are folded into the unhealthy status.
func (s *Store) HealthCheck(ctx context.Context) Health {
	_, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return Health{
			Status: "unhealthy",
			Details: map[string]any{
				"error":     err.Error(),
				"timestamp": user.Timestamp(s.now()),
			},
		}
	}

	return Health{
		Status: "healthy",
		Details: map[string]any{
			"bucket":    s.bucket,
			"region":    s.region,
			"timestamp": user.Timestamp(s.now()),
		},
	}
}

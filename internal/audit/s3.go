package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver writes full run reports to S3 for long-term retention, keyed by
// date and run id.
type Archiver struct {
	s3Client *s3.Client
	bucket   string
}

// NewArchiver creates an S3 archiver. With profile empty the default
// credential chain is used (IAM role on ECS).
func NewArchiver(ctx context.Context, bucket, region, profile string) (*Archiver, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Archiver{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
	}, nil
}

// ArchiveRun uploads one run as JSON under runs/YYYY/MM/DD/<id>.json.
func (a *Archiver) ArchiveRun(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", run.ID, err)
	}

	ts := run.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	key := fmt.Sprintf("runs/%s/%s.json", ts.Format("2006/01/02"), run.ID)

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archiving run %s to s3://%s/%s: %w", run.ID, a.bucket, key, err)
	}
	return nil
}

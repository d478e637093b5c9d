// Package s3blob 把日报归档到 S3 或兼容的对象存储（MinIO、R2 等）
package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

type Config struct {
	Endpoint       string // 留空使用 AWS 官方
	Region         string
	Bucket         string
	Prefix         string
	AccessKey      string // 留空走默认凭证链
	SecretKey      string
	ForcePathStyle bool
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Archiver struct {
	up     uploader
	bucket string
	prefix string
}

func New(ctx context.Context, cfg Config) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3blob: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return newArchiver(manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

func newArchiver(up uploader, bucket, prefix string) *Archiver {
	return &Archiver{up: up, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ReportKey <prefix>/reports/YYYY-MM-DD.json，日期取统计周期结束那天
func (a *Archiver) ReportKey(rep model.Report) string {
	name := rep.PeriodEnd.Format("2006-01-02") + ".json"
	if a.prefix == "" {
		return path.Join("reports", name)
	}
	return path.Join(a.prefix, "reports", name)
}

func (a *Archiver) ArchiveReport(ctx context.Context, rep model.Report) error {
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: encode report: %w", err)
	}
	key := a.ReportKey(rep)
	_, err = a.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: upload %s: %w", key, err)
	}
	return nil
}

// normaliseEndpoint 没有 scheme 时补 https://
func normaliseEndpoint(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return endpoint
	}
	return "https://" + endpoint
}

var _ port.ReportArchiver = (*Archiver)(nil)

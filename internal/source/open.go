package source

import (
	"context"
	"fmt"

	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/upload"
)

// Open builds the source selected by cfg.Type.
func Open(ctx context.Context, cfg config.SourceConfig) (upload.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "synthetic":
		return NewSynthetic(cfg.Synthetic.Count, cfg.Synthetic.Template), nil
	case "csv":
		src, err := OpenCSVFile(cfg.CSV.Path, cfg.CSV.Column, cfg.CSV.HasHeader)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "s3":
		client, err := NewS3Client(ctx, cfg.S3.Region, cfg.S3.GetAWSProfile())
		if err != nil {
			return nil, err
		}
		src, err := OpenS3(ctx, client, cfg.S3.Bucket, cfg.S3.Key, cfg.S3.Column, cfg.S3.HasHeader)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "sql":
		src, err := OpenSQL(ctx, cfg.SQL.Driver, cfg.SQL.DSN, cfg.SQL.Query)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "redis":
		src, err := OpenRedisSet(ctx, cfg.Redis.URL, cfg.Redis.Key, cfg.Redis.ScanCount)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Type)
}

package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Endpoint returns the custom endpoint (LocalStack) configured through
// AWS_S3_ENDPOINT or AWS_ENDPOINT, in that order of preference.
func Endpoint() string {
	if ep := os.Getenv("AWS_S3_ENDPOINT"); ep != "" {
		return ep
	}
	return os.Getenv("AWS_ENDPOINT")
}

// LoadAWSConfig loads the default SDK config. When a custom endpoint is
// configured every client built from the returned config targets it.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region := os.Getenv("AWS_REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	// Static keys take precedence over the default chain (LocalStack uses dummies).
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" || secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if ep := Endpoint(); ep != "" {
		cfg.BaseEndpoint = sdkaws.String(ep)
	}
	return cfg, nil
}

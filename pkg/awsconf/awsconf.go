// Package awsconf loads aws.Config values shared by the AWS-backed components.
package awsconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Settings selects region and, optionally, static credentials. When the keys
// are empty the default credential chain (env, shared config, IAM role) is used.
type Settings struct {
	Region          string `mapstructure:"region" json:"region" yaml:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key" yaml:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
}

// HasStaticCredentials reports whether both access keys are set.
func (s Settings) HasStaticCredentials() bool {
	return strings.TrimSpace(s.AccessKeyID) != "" && strings.TrimSpace(s.SecretAccessKey) != ""
}

// Load resolves an aws.Config for the given settings.
func Load(ctx context.Context, s Settings) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []func(*awscfg.LoadOptions) error
	if region := strings.TrimSpace(s.Region); region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	if s.HasStaticCredentials() {
		creds := credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")
		opts = append(opts, awscfg.WithCredentialsProvider(creds))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if endpoint := strings.TrimSpace(s.Endpoint); endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}

// Package secrets resolves sensitive values such as the webhook URL at run time.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/Adda-Baaj/taja-digest/internal/logger"
)

// Source returns the value stored under name.
type Source interface {
	Get(ctx context.Context, name string) (string, error)
}

// ErrEmptyValue is returned when a parameter resolves to a blank value.
var ErrEmptyValue = errors.New("secret value is empty")

// getParameterAPI is the subset of the SSM client used by SSMSource.
type getParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads decrypted SecureString parameters from Parameter Store.
type SSMSource struct {
	client getParameterAPI
	log    logger.Logger
}

// NewSSMSource builds a source from an aws.Config.
func NewSSMSource(awsCfg aws.Config, log logger.Logger) *SSMSource {
	return NewSSMSourceWithClient(ssm.NewFromConfig(awsCfg), log)
}

// NewSSMSourceWithClient wraps an existing client.
func NewSSMSourceWithClient(client getParameterAPI, log logger.Logger) *SSMSource {
	return &SSMSource{client: client, log: logger.Ensure(log)}
}

// Get fetches and decrypts the parameter.
func (s *SSMSource) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		s.log.ErrorObj("ssm parameter fetch failed", "secret_fetch_error", map[string]any{
			"parameter": name,
			"error":     err.Error(),
		})
		return "", fmt.Errorf("get ssm parameter %s: %w", name, err)
	}
	if out.Parameter == nil || strings.TrimSpace(aws.ToString(out.Parameter.Value)) == "" {
		return "", fmt.Errorf("ssm parameter %s: %w", name, ErrEmptyValue)
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}

// EnvSource reads values from environment variables.
type EnvSource struct{}

// Get returns the named environment variable.
func (EnvSource) Get(_ context.Context, name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("environment variable %s: %w", name, ErrEmptyValue)
	}
	return v, nil
}

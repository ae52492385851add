// Package secret resolves the Slack webhook URL, either from AWS Secrets
// Manager or from a directly configured value.
package secret

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

// ErrConfiguration is returned when neither a secret name nor a webhook URL is configured
var ErrConfiguration = errors.New("no webhook destination configured")

// API is the subset of the Secrets Manager client used by the resolver
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ClientFactory returns a Secrets Manager client bound to a region
type ClientFactory func(region string) API

// Kind classifies a secret store failure
type Kind int

const (
	KindUnknown Kind = iota
	KindDecryptionFailure
	KindInternalServiceError
	KindInvalidParameter
	KindInvalidRequest
	KindNotFound
	KindEmptySecret
)

func (k Kind) String() string {
	switch k {
	case KindDecryptionFailure:
		return "decryption_failure"
	case KindInternalServiceError:
		return "internal_service_error"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindInvalidRequest:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindEmptySecret:
		return "empty_secret"
	default:
		return "unknown"
	}
}

// RetrievalError wraps a failure to read a secret from the store
type RetrievalError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve secret %q (%s): %v", e.Name, e.Kind, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Resolver resolves the webhook URL for an invocation. Secrets are never cached.
type Resolver struct {
	newClient   ClientFactory
	secretName  string
	fallbackURL string
}

// NewResolver creates a resolver backed by Secrets Manager clients built from awsCfg
func NewResolver(awsCfg aws.Config, secretName, fallbackURL string) *Resolver {
	return NewResolverWithFactory(func(region string) API {
		return secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
			if region != "" {
				o.Region = region
			}
		})
	}, secretName, fallbackURL)
}

// NewResolverWithFactory creates a resolver with a custom client factory
func NewResolverWithFactory(factory ClientFactory, secretName, fallbackURL string) *Resolver {
	return &Resolver{
		newClient:   factory,
		secretName:  secretName,
		fallbackURL: fallbackURL,
	}
}

// Resolve returns the webhook URL. Without a secret name the configured URL is
// returned and the store is not contacted.
func (r *Resolver) Resolve(ctx context.Context, region string) (string, error) {
	if r.secretName == "" {
		if r.fallbackURL == "" {
			log.Error().Msg("neither SECRETMANAGER_SECRET_NAME nor SLACK_WEBHOOK_URL is set")
			return "", ErrConfiguration
		}
		return r.fallbackURL, nil
	}
	return r.Lookup(ctx, r.secretName, region)
}

// Lookup reads a secret string by name from the store in the given region
func (r *Resolver) Lookup(ctx context.Context, name, region string) (string, error) {
	out, err := r.newClient(region).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		kind := classify(err)
		logFailure(kind, name, err)
		return "", &RetrievalError{Kind: kind, Name: name, Err: err}
	}

	if out.SecretString == nil || *out.SecretString == "" {
		err := errors.New("secret has no string value")
		logFailure(KindEmptySecret, name, err)
		return "", &RetrievalError{Kind: KindEmptySecret, Name: name, Err: err}
	}

	return *out.SecretString, nil
}

func classify(err error) Kind {
	var (
		decryption *types.DecryptionFailure
		internal   *types.InternalServiceError
		param      *types.InvalidParameterException
		request    *types.InvalidRequestException
		notFound   *types.ResourceNotFoundException
	)
	switch {
	case errors.As(err, &decryption):
		return KindDecryptionFailure
	case errors.As(err, &internal):
		return KindInternalServiceError
	case errors.As(err, &param):
		return KindInvalidParameter
	case errors.As(err, &request):
		return KindInvalidRequest
	case errors.As(err, &notFound):
		return KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "DecryptionFailure", "DecryptionFailureException":
			return KindDecryptionFailure
		case "InternalServiceError", "InternalServiceErrorException":
			return KindInternalServiceError
		case "InvalidParameterException":
			return KindInvalidParameter
		case "InvalidRequestException":
			return KindInvalidRequest
		case "ResourceNotFoundException":
			return KindNotFound
		}
	}
	return KindUnknown
}

func logFailure(kind Kind, name string, err error) {
	l := log.Error().Err(err).Str("secret", name).Stringer("kind", kind)
	switch kind {
	case KindDecryptionFailure:
		l.Msg("secrets manager can't decrypt the protected secret text using the provided KMS key")
	case KindInternalServiceError:
		l.Msg("an error occurred on the secrets manager server")
	case KindInvalidParameter:
		l.Msg("the secret request had invalid params")
	case KindInvalidRequest:
		l.Msg("the secret request was invalid")
	case KindNotFound:
		l.Msg("the requested secret was not found")
	case KindEmptySecret:
		l.Msg("the requested secret has no string value")
	default:
		l.Msg("failed to retrieve secret")
	}
}

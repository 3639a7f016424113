package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ClientOptions configures the DynamoDB client created by NewClient.
type ClientOptions struct {
	// Region is the AWS region.
	Region string

	// Endpoint overrides the DynamoDB endpoint, for local development
	// against DynamoDB Local. Empty means the real service.
	Endpoint string

	// AccessKey and SecretKey are static credentials, used only when an
	// Endpoint override is set. The default credential chain is used
	// otherwise.
	AccessKey string
	SecretKey string
}

// NewClient creates a DynamoDB client from the options. It is a convenience
// for callers that do not already manage an AWS config.
func NewClient(ctx context.Context, opts ClientOptions) (*dynamodb.Client, error) {
	var cfg aws.Config
	var err error

	if opts.Endpoint != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				opts.AccessKey,
				opts.SecretKey,
				"",
			)),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter Store names used when the *_PARAM variables are unset
const (
	DefaultPasswordParam = "/citycast-digest/email-password"
	DefaultToSMSParam    = "/citycast-digest/to-sms"
)

// SSMParameterGetter is the part of the SSM client Config needs
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMClient creates an SSM client from the default AWS credential chain
func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// LoadFromParameterStore fills the SMTP password and SMS recipient from SSM.
// Parameter names can be overridden with EMAIL_PASSWORD_PARAM and TO_SMS_PARAM.
func (c *Config) LoadFromParameterStore(ctx context.Context, client SSMParameterGetter) error {
	password, err := getParameter(ctx, client, getEnvOrDefault("EMAIL_PASSWORD_PARAM", DefaultPasswordParam), true)
	if err != nil {
		return fmt.Errorf("loading SMTP password: %w", err)
	}
	c.SMTP.Password = password

	to, err := getParameter(ctx, client, getEnvOrDefault("TO_SMS_PARAM", DefaultToSMSParam), true)
	if err != nil {
		return fmt.Errorf("loading SMS recipient: %w", err)
	}
	c.SMS.To = to

	return nil
}

func getParameter(ctx context.Context, client SSMParameterGetter, name string, withDecryption bool) (string, error) {
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(withDecryption),
	})
	if err != nil {
		return "", fmt.Errorf("getting parameter %s: %w", name, err)
	}

	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", fmt.Errorf("parameter %s is empty", name)
	}

	return aws.ToString(result.Parameter.Value), nil
}

package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SecretGetter é o subconjunto do cliente do Secrets Manager usado aqui.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func novoSecretsClient(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// buscarCredenciais lê usuário/senha do segredo (versão AWSCURRENT).
func buscarCredenciais(ctx context.Context, sm SecretGetter, secretID string) (Credentials, error) {
	result, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("get secret %s: %w", secretID, err)
	}
	if result.SecretString == nil {
		return Credentials{}, fmt.Errorf("secret %s sem SecretString", secretID)
	}

	var cred Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &cred); err != nil {
		return Credentials{}, fmt.Errorf("decode secret %s: %w", secretID, err)
	}
	return cred, nil
}

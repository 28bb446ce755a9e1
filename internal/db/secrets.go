package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// dbCredentials is the JSON document stored in Secrets Manager for RDS.
type dbCredentials struct {
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname"`
}

func (c dbCredentials) DSN() string {
	port := c.Port.String()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=require",
		c.Host, port, c.Username, c.Password, c.DBName)
}

// getDBCredentials fetches database credentials from Secrets Manager.
func getDBCredentials(ctx context.Context, secretArn string) (dbCredentials, error) {
	var creds dbCredentials

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return creds, err
	}

	client := secretsmanager.NewFromConfig(cfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		return creds, err
	}
	if result.SecretString == nil {
		return creds, fmt.Errorf("secret %s has no string value", secretArn)
	}

	if err := json.Unmarshal([]byte(*result.SecretString), &creds); err != nil {
		return creds, err
	}
	return creds, nil
}

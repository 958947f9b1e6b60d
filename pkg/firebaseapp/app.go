package firebaseapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no Firebase credentials are present
var ErrNotConfigured = errors.New("firebase credentials not configured")

type serviceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id,omitempty"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id,omitempty"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
}

// CredentialsJSON renders the env credential bundle as a service-account key file.
// Private keys in .env files usually carry literal "\n" sequences; they are unescaped here.
func CredentialsJSON(cfg config.FirebaseConfig) ([]byte, error) {
	if !cfg.HasServiceAccount() {
		return nil, ErrNotConfigured
	}
	accountType := cfg.Type
	if accountType == "" {
		accountType = "service_account"
	}
	return json.Marshal(serviceAccount{
		Type:                    accountType,
		ProjectID:               cfg.ProjectID,
		PrivateKeyID:            cfg.PrivateKeyID,
		PrivateKey:              strings.ReplaceAll(cfg.PrivateKey, "\\n", "\n"),
		ClientEmail:             cfg.ClientEmail,
		ClientID:                cfg.ClientID,
		AuthURI:                 cfg.AuthURI,
		TokenURI:                cfg.TokenURI,
		AuthProviderX509CertURL: cfg.AuthProviderX509CertURL,
		ClientX509CertURL:       cfg.ClientX509CertURL,
	})
}

// New initializes the Firebase app shared by messaging and the Realtime Database
func New(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	case cfg.HasServiceAccount():
		creds, err := CredentialsJSON(cfg)
		if err != nil {
			return nil, err
		}
		opt = option.WithCredentialsJSON(creds)
	default:
		return nil, ErrNotConfigured
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	log.Printf("[Firebase] Initialized for project: %s", cfg.ProjectID)
	return app, nil
}

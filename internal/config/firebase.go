package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type ServiceAccountCredentials struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain"`
}

// FirebaseConfig carries either inline service-account credentials or a path
// to a credentials file. With Emulator set no credentials are sent at all.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	Credentials     ServiceAccountCredentials
	Emulator        bool
}

type FirebaseClient struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

func (c *FirebaseConfig) clientOption() (option.ClientOption, error) {
	switch {
	case c.Emulator:
		return option.WithoutAuthentication(), nil
	case c.CredentialsPath != "":
		return option.WithCredentialsFile(c.CredentialsPath), nil
	}
	credentialsJSON, err := json.Marshal(c.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Firebase credentials: %w", err)
	}
	return option.WithCredentialsJSON(credentialsJSON), nil
}

func NewFirebaseClient(ctx context.Context, cfg *FirebaseConfig) (*FirebaseClient, error) {
	opt, err := cfg.clientOption()
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to create Firebase auth client: %w", err)
	}

	return &FirebaseClient{
		App:       app,
		Firestore: firestoreClient,
		Auth:      authClient,
	}, nil
}

// serviceAccountEnv maps each FIREBASE_* variable onto its credentials field.
var serviceAccountEnv = []struct {
	key   string
	field func(*ServiceAccountCredentials) *string
}{
	{"FIREBASE_TYPE", func(c *ServiceAccountCredentials) *string { return &c.Type }},
	{"FIREBASE_PRIVATE_KEY_ID", func(c *ServiceAccountCredentials) *string { return &c.PrivateKeyID }},
	{"FIREBASE_PRIVATE_KEY", func(c *ServiceAccountCredentials) *string { return &c.PrivateKey }},
	{"FIREBASE_CLIENT_EMAIL", func(c *ServiceAccountCredentials) *string { return &c.ClientEmail }},
	{"FIREBASE_CLIENT_ID", func(c *ServiceAccountCredentials) *string { return &c.ClientID }},
	{"FIREBASE_AUTH_URI", func(c *ServiceAccountCredentials) *string { return &c.AuthURI }},
	{"FIREBASE_TOKEN_URI", func(c *ServiceAccountCredentials) *string { return &c.TokenURI }},
	{"FIREBASE_AUTH_PROVIDER_X509_CERT_URL", func(c *ServiceAccountCredentials) *string { return &c.AuthProviderX509CertURL }},
	{"FIREBASE_CLIENT_X509_CERT_URL", func(c *ServiceAccountCredentials) *string { return &c.ClientX509CertURL }},
	{"FIREBASE_UNIVERSE_DOMAIN", func(c *ServiceAccountCredentials) *string { return &c.UniverseDomain }},
}

func LoadFirebaseConfig() (*FirebaseConfig, error) {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}

	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		slog.Warn("Using Firestore emulator, credentials are ignored", "host", os.Getenv("FIRESTORE_EMULATOR_HOST"))
		return &FirebaseConfig{ProjectID: projectID, Emulator: true}, nil
	}

	if path := os.Getenv("FIREBASE_CREDENTIALS_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("firebase credentials file not readable: %w", err)
		}
		return &FirebaseConfig{ProjectID: projectID, CredentialsPath: path}, nil
	}

	creds := ServiceAccountCredentials{ProjectID: projectID}
	var missing []string
	for _, env := range serviceAccountEnv {
		value := os.Getenv(env.key)
		if value == "" {
			missing = append(missing, env.key)
			continue
		}
		*env.field(&creds) = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing Firebase config environment variables: %s", strings.Join(missing, ", "))
	}

	return &FirebaseConfig{ProjectID: projectID, Credentials: creds}, nil
}

func InitFirebase(ctx context.Context) (*FirebaseClient, error) {
	slog.Info("Initializing Firebase connection from environment variables")

	firebaseConfig, err := LoadFirebaseConfig()
	if err != nil {
		slog.Error("Failed to load Firebase config from environment variables", slog.Any("error", err))
		return nil, err
	}

	client, err := NewFirebaseClient(ctx, firebaseConfig)
	if err != nil {
		slog.Error("Failed to initialize Firebase client", slog.Any("error", err))
		return nil, err
	}

	slog.Info("Firebase connection initialized successfully")
	return client, nil
}

func (c *FirebaseClient) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	if err := c.Firestore.Close(); err != nil {
		slog.Error("Failed to close Firebase connection", slog.Any("error", err))
		return err
	}
	slog.Info("Firebase connection closed successfully")
	return nil
}

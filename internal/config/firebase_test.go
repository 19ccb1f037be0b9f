package config

import (
	"strings"
	"testing"
)

func clearFirebaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "nomorewaste-test")
	t.Setenv("FIRESTORE_EMULATOR_HOST", "")
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "")
	for _, env := range serviceAccountEnv {
		t.Setenv(env.key, "")
	}
}

func TestLoadFirebaseConfig_Emulator(t *testing.T) {
	clearFirebaseEnv(t)
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:8081")

	cfg, err := LoadFirebaseConfig()
	if err != nil {
		t.Fatalf("LoadFirebaseConfig() error = %v", err)
	}
	if !cfg.Emulator || cfg.ProjectID != "nomorewaste-test" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFirebaseConfig_ServiceAccount(t *testing.T) {
	clearFirebaseEnv(t)
	for _, env := range serviceAccountEnv {
		t.Setenv(env.key, strings.ToLower(env.key))
	}

	cfg, err := LoadFirebaseConfig()
	if err != nil {
		t.Fatalf("LoadFirebaseConfig() error = %v", err)
	}
	if cfg.Credentials.ClientEmail != "firebase_client_email" || cfg.Credentials.ProjectID != "nomorewaste-test" {
		t.Errorf("credentials = %+v", cfg.Credentials)
	}
}

func TestLoadFirebaseConfig_Missing(t *testing.T) {
	clearFirebaseEnv(t)
	t.Setenv("FIREBASE_TYPE", "service_account")

	_, err := LoadFirebaseConfig()
	if err == nil {
		t.Fatal("LoadFirebaseConfig() error = nil, want missing variables")
	}
	if !strings.Contains(err.Error(), "FIREBASE_PRIVATE_KEY") || strings.Contains(err.Error(), "FIREBASE_TYPE") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadFirebaseConfig_NoProject(t *testing.T) {
	clearFirebaseEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "")

	if _, err := LoadFirebaseConfig(); err == nil {
		t.Error("LoadFirebaseConfig() error = nil, want failure")
	}
}

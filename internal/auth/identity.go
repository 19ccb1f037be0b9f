package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	firebaseauth "firebase.google.com/go/v4/auth"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// ErrProfileNotFound is returned by a ProfileLookup when the caller has no
// profile document. Such callers are resolved as non-administrative viewers.
var ErrProfileNotFound = errors.New("profile not found")

type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialSession
	CredentialBearer
)

type Credential struct {
	Kind  CredentialKind
	Value string
}

// Viewer is the resolved identity of a caller.
type Viewer struct {
	ID             string
	Role           string
	Administrative bool
}

func (v Viewer) Authenticated() bool {
	return v.ID != ""
}

type IdentityProvider interface {
	Resolve(ctx context.Context, cred Credential) (Viewer, error)
}

type Profile struct {
	Role         string
	IsSuperAdmin bool
}

type ProfileLookup interface {
	GetProfile(ctx context.Context, uid string) (Profile, error)
}

// RoleSet decides which roles see the administrative channel.
type RoleSet struct {
	roles []string
}

func NewRoleSet(roles []string) RoleSet {
	return RoleSet{roles: slices.Clone(roles)}
}

func (r RoleSet) Administrative(p Profile) bool {
	return p.IsSuperAdmin || slices.Contains(r.roles, p.Role)
}

// TokenVerifier is the subset of *firebaseauth.Client used to verify callers.
type TokenVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*firebaseauth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

type FirebaseIdentity struct {
	verifier TokenVerifier
	profiles ProfileLookup
	roles    RoleSet
}

func NewFirebaseIdentity(verifier TokenVerifier, profiles ProfileLookup, roles RoleSet) *FirebaseIdentity {
	return &FirebaseIdentity{verifier: verifier, profiles: profiles, roles: roles}
}

func (f *FirebaseIdentity) Resolve(ctx context.Context, cred Credential) (Viewer, error) {
	var (
		token *firebaseauth.Token
		err   error
	)
	switch cred.Kind {
	case CredentialSession:
		token, err = f.verifier.VerifySessionCookie(ctx, cred.Value)
	case CredentialBearer:
		token, err = f.verifier.VerifyIDToken(ctx, cred.Value)
	default:
		return Viewer{}, ErrUnauthenticated
	}
	if err != nil {
		slog.Debug("firebase credential rejected", "error", err)
		return Viewer{}, ErrUnauthenticated
	}

	profile, err := f.profiles.GetProfile(ctx, token.UID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return Viewer{}, fmt.Errorf("failed to load profile for %s: %w", token.UID, err)
	}

	// custom claim set by the admin promotion script
	if claim, ok := token.Claims["admin"].(bool); ok && claim {
		profile.IsSuperAdmin = true
	}

	return Viewer{
		ID:             token.UID,
		Role:           profile.Role,
		Administrative: f.roles.Administrative(profile),
	}, nil
}

// Chain tries each provider in order and returns the first resolved viewer.
type Chain []IdentityProvider

func (c Chain) Resolve(ctx context.Context, cred Credential) (Viewer, error) {
	for _, p := range c {
		viewer, err := p.Resolve(ctx, cred)
		if err == nil {
			return viewer, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return Viewer{}, err
		}
	}
	return Viewer{}, ErrUnauthenticated
}

package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type fakeVerifier struct {
	sessions map[string]*firebaseauth.Token
	idTokens map[string]*firebaseauth.Token
}

func (f *fakeVerifier) VerifySessionCookie(_ context.Context, cookie string) (*firebaseauth.Token, error) {
	if tok, ok := f.sessions[cookie]; ok {
		return tok, nil
	}
	return nil, errors.New("session cookie revoked")
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if tok, ok := f.idTokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("id token expired")
}

type fakeProfiles struct {
	profiles map[string]Profile
	err      error
}

func (f *fakeProfiles) GetProfile(_ context.Context, uid string) (Profile, error) {
	if f.err != nil {
		return Profile{}, f.err
	}
	p, ok := f.profiles[uid]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func TestFirebaseIdentity_Resolve(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{
		sessions: map[string]*firebaseauth.Token{
			"admin-cookie":  {UID: "admin-1"},
			"vendor-cookie": {UID: "vendor-1"},
			"super-cookie":  {UID: "super-1"},
			"ghost-cookie":  {UID: "ghost-1"},
			"claim-cookie":  {UID: "claim-1", Claims: map[string]interface{}{"admin": true}},
		},
		idTokens: map[string]*firebaseauth.Token{
			"admin-token": {UID: "admin-1"},
		},
	}
	profiles := &fakeProfiles{profiles: map[string]Profile{
		"admin-1":  {Role: "admin"},
		"vendor-1": {Role: "vendor"},
		"super-1":  {Role: "vendor", IsSuperAdmin: true},
	}}
	identity := NewFirebaseIdentity(verifier, profiles, NewRoleSet([]string{"admin", "superadmin"}))

	tests := []struct {
		name      string
		cred      Credential
		wantID    string
		wantAdmin bool
		wantErr   error
	}{
		{name: "admin session", cred: Credential{Kind: CredentialSession, Value: "admin-cookie"}, wantID: "admin-1", wantAdmin: true},
		{name: "admin bearer", cred: Credential{Kind: CredentialBearer, Value: "admin-token"}, wantID: "admin-1", wantAdmin: true},
		{name: "vendor session", cred: Credential{Kind: CredentialSession, Value: "vendor-cookie"}, wantID: "vendor-1"},
		{name: "super admin flag", cred: Credential{Kind: CredentialSession, Value: "super-cookie"}, wantID: "super-1", wantAdmin: true},
		{name: "admin claim without profile", cred: Credential{Kind: CredentialSession, Value: "claim-cookie"}, wantID: "claim-1", wantAdmin: true},
		{name: "no profile", cred: Credential{Kind: CredentialSession, Value: "ghost-cookie"}, wantID: "ghost-1"},
		{name: "revoked session", cred: Credential{Kind: CredentialSession, Value: "stale"}, wantErr: ErrUnauthenticated},
		{name: "no credential", cred: Credential{}, wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			viewer, err := identity.Resolve(context.Background(), tt.cred)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if viewer.ID != tt.wantID || viewer.Administrative != tt.wantAdmin {
				t.Errorf("Resolve() = %+v, want id %s admin %v", viewer, tt.wantID, tt.wantAdmin)
			}
		})
	}
}

func TestFirebaseIdentity_ProfileStoreDown(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{sessions: map[string]*firebaseauth.Token{"c": {UID: "u"}}}
	identity := NewFirebaseIdentity(verifier, &fakeProfiles{err: errors.New("deadline exceeded")}, NewRoleSet(nil))

	_, err := identity.Resolve(context.Background(), Credential{Kind: CredentialSession, Value: "c"})
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Resolve() error = %v, want store failure", err)
	}
}

type staticProvider struct {
	viewer Viewer
	err    error
	calls  int
}

func (s *staticProvider) Resolve(context.Context, Credential) (Viewer, error) {
	s.calls++
	return s.viewer, s.err
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("first success wins", func(t *testing.T) {
		t.Parallel()

		first := &staticProvider{err: ErrUnauthenticated}
		second := &staticProvider{viewer: Viewer{ID: "u1"}}
		third := &staticProvider{viewer: Viewer{ID: "u2"}}

		viewer, err := Chain{first, second, third}.Resolve(context.Background(), Credential{Kind: CredentialBearer, Value: "x"})
		if err != nil || viewer.ID != "u1" {
			t.Fatalf("Resolve() = %+v, %v; want u1", viewer, err)
		}
		if third.calls != 0 {
			t.Error("provider after a success was consulted")
		}
	})

	t.Run("hard failure stops the chain", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		second := &staticProvider{viewer: Viewer{ID: "u1"}}
		_, err := Chain{&staticProvider{err: boom}, second}.Resolve(context.Background(), Credential{})
		if !errors.Is(err, boom) {
			t.Fatalf("Resolve() error = %v, want boom", err)
		}
		if second.calls != 0 {
			t.Error("chain continued after a hard failure")
		}
	})

	t.Run("all reject", func(t *testing.T) {
		t.Parallel()

		_, err := Chain{&staticProvider{err: ErrUnauthenticated}}.Resolve(context.Background(), Credential{})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("Resolve() error = %v, want ErrUnauthenticated", err)
		}
	})
}

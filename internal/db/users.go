package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nomorewaste/internal/auth"
	"nomorewaste/internal/models"
)

func userFromDoc(doc *firestore.DocumentSnapshot) models.User {
	data := doc.Data()
	return models.User{
		ID:                 doc.Ref.ID,
		DisplayName:        toString(data["displayName"]),
		Email:              toString(data["email"]),
		Role:               toString(data["role"]),
		IsSuperAdmin:       toBool(data["isSuperAdmin"]),
		VerificationStatus: models.VerificationStatus(toString(data["verificationStatus"])),
		CreatedAt:          toTime(data["createdAt"]),
	}
}

func (s *Store) GetUser(ctx context.Context, uid string) (models.User, error) {
	ref, err := s.doc(usersCollection, uid)
	if err != nil {
		return models.User{}, err
	}
	doc, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.User{}, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user %s: %w", uid, err)
	}
	return userFromDoc(doc), nil
}

// GetProfile satisfies auth.ProfileLookup.
func (s *Store) GetProfile(ctx context.Context, uid string) (auth.Profile, error) {
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Profile{}, auth.ErrProfileNotFound
		}
		return auth.Profile{}, err
	}
	return auth.Profile{Role: user.Role, IsSuperAdmin: user.IsSuperAdmin}, nil
}

func (s *Store) ListPendingUsers(ctx context.Context) ([]models.User, error) {
	iter := s.client.Collection(usersCollection).
		Where("verificationStatus", "==", string(models.VerificationPending)).
		Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list pending users: %w", err)
		}
		users = append(users, userFromDoc(doc))
	}
	return users, nil
}

type VerificationDecision struct {
	UserID  string
	AdminID string
	Approve bool
	Reason  string
}

func (s *Store) ApplyVerification(ctx context.Context, d VerificationDecision) error {
	now := s.now()
	var updates []firestore.Update
	if d.Approve {
		updates = []firestore.Update{
			{Path: "verificationStatus", Value: string(models.VerificationApproved)},
			{Path: "verifiedBy", Value: d.AdminID},
			{Path: "verifiedAt", Value: now},
		}
	} else {
		updates = []firestore.Update{
			{Path: "verificationStatus", Value: string(models.VerificationRejected)},
			{Path: "rejectedBy", Value: d.AdminID},
			{Path: "rejectedAt", Value: now},
			{Path: "rejectionReason", Value: d.Reason},
		}
	}

	ref, err := s.doc(usersCollection, d.UserID)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("user %s: %w", d.UserID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update verification for %s: %w", d.UserID, err)
	}
	return nil
}

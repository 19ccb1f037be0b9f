package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nomorewaste/internal/models"
)

func donationFromDoc(doc *firestore.DocumentSnapshot) models.Donation {
	data := doc.Data()
	return models.Donation{
		ID:         doc.Ref.ID,
		Title:      toString(data["title"]),
		VendorName: toString(data["vendorName"]),
		Status:     models.DonationStatus(toString(data["status"])),
		ExpiryTime: toTime(data["expiryTime"]),
		CreatedAt:  toTime(data["createdAt"]),
		UpdatedAt:  toTime(data["updatedAt"]),
	}
}

func collectDonations(iter *firestore.DocumentIterator) ([]models.Donation, error) {
	defer iter.Stop()

	var donations []models.Donation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list donations: %w", err)
		}
		donations = append(donations, donationFromDoc(doc))
	}
	return donations, nil
}

func (s *Store) ListDonations(ctx context.Context, limit int) ([]models.Donation, error) {
	query := s.client.Collection(donationsCollection).Query
	if limit > 0 {
		query = query.Limit(limit)
	}
	return collectDonations(query.Documents(ctx))
}

func (s *Store) ListDonationsByStatus(ctx context.Context, st models.DonationStatus) ([]models.Donation, error) {
	query := s.client.Collection(donationsCollection).Where("status", "==", string(st))
	return collectDonations(query.Documents(ctx))
}

func (s *Store) GetDonation(ctx context.Context, id string) (models.Donation, error) {
	ref, err := s.doc(donationsCollection, id)
	if err != nil {
		return models.Donation{}, err
	}
	doc, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.Donation{}, fmt.Errorf("donation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Donation{}, fmt.Errorf("failed to get donation %s: %w", id, err)
	}
	return donationFromDoc(doc), nil
}

// UpdateDonationStatus returns the donation as it was before the update.
func (s *Store) UpdateDonationStatus(ctx context.Context, id string, st models.DonationStatus) (models.Donation, error) {
	ref, err := s.doc(donationsCollection, id)
	if err != nil {
		return models.Donation{}, err
	}

	var before models.Donation
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		before = donationFromDoc(doc)
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(st)},
			{Path: "updatedAt", Value: s.now()},
		})
	})
	if errors.Is(err, ErrNotFound) {
		return models.Donation{}, fmt.Errorf("donation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Donation{}, fmt.Errorf("failed to update donation %s: %w", id, err)
	}
	return before, nil
}

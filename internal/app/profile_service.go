package app

import (
	"context"
	"fmt"
	"strings"

	"certprep-service/internal/domain"
)

// CertInfoLoader fetches certification info (from cache/backing store).
type CertInfoLoader interface {
	GetCertInfo(ctx context.Context, certificationName string) (domain.CertInfo, error)
}

// Profile fields callers are allowed to update.
var allowedProfileFields = map[string]bool{
	"aspiringjobrole":       true,
	"clearedcertifications": true,
	"currentjobrole":        true,
	"interestareas":         true,
	"recommended_cert":      true,
}

// ProfileService backs the profile and certification-info handlers.
type ProfileService struct {
	profiles ProfileStore
	certs    CertInfoLoader
}

func NewProfileService(profiles ProfileStore, certs CertInfoLoader) *ProfileService {
	return &ProfileService{profiles: profiles, certs: certs}
}

// GetUserDetails returns the full profile record for a username.
func (s *ProfileService) GetUserDetails(ctx context.Context, username string) (domain.UserProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return s.profiles.GetProfile(ctx, username)
}

// UpdateUserProfile applies the allowed subset of fields to a profile,
// creating the record if it does not exist yet.
func (s *ProfileService) UpdateUserProfile(ctx context.Context, username string, fields map[string]string) (domain.UserProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	updates := make(map[string]string, len(fields))
	for name, value := range fields {
		if allowedProfileFields[name] {
			updates[name] = value
		}
	}
	if len(updates) == 0 {
		return domain.UserProfile{}, domain.Validationf("no valid fields to update")
	}
	return s.profiles.UpdateProfile(ctx, username, updates)
}

// UpdateRecommendedCert sets the recommended certification on a profile.
func (s *ProfileService) UpdateRecommendedCert(ctx context.Context, username, recommendedCert string) (domain.UserProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return s.profiles.UpdateProfile(ctx, username, map[string]string{
		"recommended_cert": recommendedCert,
	})
}

// GetCertInfo resolves the user's recommended certification and returns its
// info record: a two-step lookup across the profile and cert-info stores.
func (s *ProfileService) GetCertInfo(ctx context.Context, username string) (domain.CertInfo, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	profile, err := s.profiles.GetProfile(ctx, username)
	if err != nil {
		return domain.CertInfo{}, err
	}
	if profile.RecommendedCert == "" {
		return domain.CertInfo{}, fmt.Errorf("%w: no recommended certification for user %q", domain.ErrCertNotFound, username)
	}
	return s.certs.GetCertInfo(ctx, profile.RecommendedCert)
}

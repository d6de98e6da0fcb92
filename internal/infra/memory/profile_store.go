package memory

import (
	"context"
	"sync"

	"certprep-service/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileStore (useful
// for tests/demos).
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
}

func NewProfileStore(profiles map[string]domain.UserProfile) *ProfileStore {
	if profiles == nil {
		profiles = make(map[string]domain.UserProfile)
	}
	return &ProfileStore{profiles: profiles}
}

func (s *ProfileStore) GetProfile(_ context.Context, username string) (domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[username]
	if !ok {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	return profile, nil
}

func (s *ProfileStore) UpdateProfile(_ context.Context, username string, fields map[string]string) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.profiles[username]
	profile.Username = username
	for name, value := range fields {
		switch name {
		case "currentjobrole":
			profile.CurrentJobRole = value
		case "aspiringjobrole":
			profile.AspiringJobRole = value
		case "clearedcertifications":
			profile.ClearedCertifications = value
		case "interestareas":
			profile.InterestAreas = value
		case "recommended_cert":
			profile.RecommendedCert = value
		}
	}
	s.profiles[username] = profile
	return profile, nil
}

// StaticCertInfoStore serves certification info from a fixed map.
type StaticCertInfoStore struct {
	certs map[string]domain.CertInfo
}

func NewStaticCertInfoStore(certs map[string]domain.CertInfo) *StaticCertInfoStore {
	return &StaticCertInfoStore{certs: certs}
}

func (s *StaticCertInfoStore) GetCertInfo(_ context.Context, certificationName string) (domain.CertInfo, error) {
	if info, ok := s.certs[certificationName]; ok {
		return info, nil
	}
	return domain.CertInfo{}, domain.ErrCertNotFound
}

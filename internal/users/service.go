package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"careercoach-backend/internal/shared/telemetry"
)

const (
	maxExperienceYears = 60
	maxBioLength       = 2000
	maxSkills          = 50
)

// InsightsEnsurer makes sure insights exist for an industry before a profile points at it.
type InsightsEnsurer interface {
	Ensure(ctx context.Context, industry string) error
}

type Service struct {
	Repo           Repo
	Insights       InsightsEnsurer
	DefaultCredits int
}

func NewService(repo Repo, defaultCredits int) *Service {
	return &Service{Repo: repo, DefaultCredits: defaultCredits}
}

// Ensure returns the user for the identity, creating it on first access.
// Changed email, name or picture from the identity provider are synced.
func (s *Service) Ensure(ctx context.Context, id Identity) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	subject := strings.TrimSpace(id.Subject)
	if subject == "" {
		return User{}, fmt.Errorf("%w: identity subject is required", ErrInvalidInput)
	}

	user, err := s.Repo.GetByAuthID(ctx, subject)
	if err == nil {
		if identityChanged(user, id) {
			email, name, picture := merge(user.Email, id.Email), merge(user.Name, id.Name), merge(user.PictureURL, id.Picture)
			if err := s.Repo.UpdateIdentity(ctx, user.ID, email, name, picture); err != nil {
				return User{}, err
			}
			user.Email, user.Name, user.PictureURL = email, name, picture
		}
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	credits := s.DefaultCredits
	if credits < 0 {
		credits = 0
	}
	user, err = s.Repo.Create(ctx, User{
		ID:         uuid.NewString(),
		AuthID:     subject,
		Email:      strings.TrimSpace(id.Email),
		Name:       strings.TrimSpace(id.Name),
		PictureURL: strings.TrimSpace(id.Picture),
		Credits:    credits,
	})
	if err != nil {
		return User{}, err
	}
	telemetry.Info("user.created", map[string]any{"user_id": user.ID, "credits": user.Credits})
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// Industry returns the user's industry, empty when not onboarded.
func (s *Service) Industry(ctx context.Context, userID string) (string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Industry, nil
}

// OnboardingStatus reports whether the user has an industry set.
func (s *Service) OnboardingStatus(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Onboarded(), nil
}

// UpdateProfile validates the profile, ensures insights for the industry exist,
// then stores the profile. If insights cannot be produced the profile is left unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	normalized, err := NormalizeProfile(profile)
	if err != nil {
		return User{}, err
	}
	if _, err := s.Repo.GetByID(ctx, userID); err != nil {
		return User{}, err
	}
	if s.Insights != nil {
		if err := s.Insights.Ensure(ctx, normalized.Industry); err != nil {
			return User{}, fmt.Errorf("%w: %q: %w", ErrInsightsUnavailable, normalized.Industry, err)
		}
	}
	return s.Repo.UpdateProfile(ctx, userID, normalized)
}

// NormalizeProfile trims fields, de-duplicates skills and validates ranges.
func NormalizeProfile(p Profile) (Profile, error) {
	p.Industry = strings.TrimSpace(p.Industry)
	if p.Industry == "" {
		return Profile{}, fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	if p.Experience != nil && (*p.Experience < 0 || *p.Experience > maxExperienceYears) {
		return Profile{}, fmt.Errorf("%w: experience must be between 0 and %d", ErrInvalidInput, maxExperienceYears)
	}
	p.Bio = strings.TrimSpace(p.Bio)
	if len(p.Bio) > maxBioLength {
		return Profile{}, fmt.Errorf("%w: bio too long", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(p.Skills))
	skills := make([]string, 0, len(p.Skills))
	for _, raw := range p.Skills {
		skill := strings.TrimSpace(raw)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	if len(skills) > maxSkills {
		return Profile{}, fmt.Errorf("%w: at most %d skills", ErrInvalidInput, maxSkills)
	}
	p.Skills = skills
	return p, nil
}

func identityChanged(u User, id Identity) bool {
	return (id.Email != "" && id.Email != u.Email) ||
		(id.Name != "" && id.Name != u.Name) ||
		(id.Picture != "" && id.Picture != u.PictureURL)
}

func merge(current, incoming string) string {
	if v := strings.TrimSpace(incoming); v != "" {
		return v
	}
	return current
}

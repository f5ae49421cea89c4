package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/timeshare-be/internal/models"
	"github.com/isdelr/timeshare-be/internal/sharing"
	"github.com/rs/zerolog/log"
)

const (
	// MaxRotationAttempts bounds candidate generation per user in a rotation pass.
	MaxRotationAttempts = 100
	// MaxIssueAttempts bounds candidate generation when issuing a first code.
	MaxIssueAttempts = 50
)

// SharingServiceProvider defines the interface for sharing-code services.
type SharingServiceProvider interface {
	GetOrCreateCode(ctx context.Context, userID string) (string, error)
	Redeem(ctx context.Context, code, requesterID string) (models.PublicUser, error)
	RotateAllCodes(ctx context.Context) (int, error)
}

// SharingService issues, rotates and redeems sharing codes.
type SharingService struct {
	store        SharingStore
	eventService EventServiceProvider
	generator    sharing.Generator
	locks        *keyedMutex

	rotationAttempts int
	issueAttempts    int
}

// NewSharingService creates a new SharingService. A nil generator falls back
// to sharing.RandomGenerator.
func NewSharingService(store SharingStore, eventService EventServiceProvider, generator sharing.Generator) *SharingService {
	if generator == nil {
		generator = sharing.RandomGenerator{}
	}
	return &SharingService{
		store:            store,
		eventService:     eventService,
		generator:        generator,
		locks:            newKeyedMutex(),
		rotationAttempts: MaxRotationAttempts,
		issueAttempts:    MaxIssueAttempts,
	}
}

// GetOrCreateCode returns the user's current code, issuing one if they have none.
func (s *SharingService) GetOrCreateCode(ctx context.Context, userID string) (string, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.SharingCode != nil {
		return *user.SharingCode, nil
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	// A concurrent caller may have issued a code while we waited.
	user, err = s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.SharingCode != nil {
		return *user.SharingCode, nil
	}

	for attempt := 0; attempt < s.issueAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate sharing code: %w", err)
		}

		_, err = s.store.FindUserByCode(ctx, code)
		if err == nil {
			log.Debug().Str("user_id", userID).Msg("Sharing code candidate already taken, regenerating")
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return "", err
		}

		set, err := s.store.UpdateUserCode(ctx, userID, code)
		if errors.Is(err, ErrCodeConflict) {
			// lost a race against another writer for the same value
			continue
		}
		if err != nil {
			return "", err
		}
		if set {
			log.Info().Str("user_id", userID).Msg("Issued sharing code")
			return code, nil
		}

		// Another process issued a code between our read and write.
		user, err = s.store.FindUserByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if user.SharingCode != nil {
			return *user.SharingCode, nil
		}
	}

	log.Error().Str("user_id", userID).Int("attempts", s.issueAttempts).Msg("Could not issue a unique sharing code")
	return "", ErrGenerationExhausted
}

// Redeem resolves code to its owner and lets requesterID view the owner's
// time records. The owner's public identity is returned.
func (s *SharingService) Redeem(ctx context.Context, code, requesterID string) (models.PublicUser, error) {
	code = sharing.Normalize(code)
	if !sharing.Valid(code) {
		return models.PublicUser{}, ErrCodeNotFound
	}

	owner, err := s.store.FindUserByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Also the expected outcome when the code rotated away.
			return models.PublicUser{}, ErrCodeNotFound
		}
		return models.PublicUser{}, err
	}

	if owner.ID == requesterID {
		return models.PublicUser{}, ErrSelfConnection
	}

	_, err = s.store.FindConnection(ctx, owner.ID, requesterID)
	if err == nil {
		return models.PublicUser{}, ErrAlreadyConnected
	}
	if !errors.Is(err, ErrConnectionNotFound) {
		return models.PublicUser{}, err
	}

	if _, err := s.store.CreateConnection(ctx, owner.ID, requesterID); err != nil {
		return models.PublicUser{}, err
	}

	log.Info().Str("owner_id", owner.ID).Str("viewer_id", requesterID).Msg("Sharing code redeemed")
	if s.eventService != nil {
		msg := fmt.Sprintf("%s can now view the work hours of %s.", requesterID, owner.Name)
		if err := s.eventService.CreateEvent(ctx, "sharing.connect", "info", msg, &owner.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to record connection event")
		}
	}

	return owner.Public(), nil
}

// RotateAllCodes gives every user holding a code a fresh one. Either all
// users are rotated or none are. It returns the number of codes replaced.
func (s *SharingService) RotateAllCodes(ctx context.Context) (int, error) {
	users, err := s.store.ListUsersWithCodes(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		log.Debug().Msg("No sharing codes to rotate")
		return 0, nil
	}

	used := make(map[string]struct{}, len(users))
	assignments := make([]models.CodeAssignment, 0, len(users))
	for _, user := range users {
		code, err := s.passUniqueCode(used)
		if err != nil {
			return 0, err
		}
		used[code] = struct{}{}
		assignments = append(assignments, models.CodeAssignment{UserID: user.ID, Code: code})
	}

	if err := s.store.BatchUpdateCodes(ctx, assignments); err != nil {
		return 0, err
	}

	log.Info().Int("rotated", len(assignments)).Msg("Rotated sharing codes")
	return len(assignments), nil
}

// passUniqueCode draws a code not yet handed out in the current pass.
func (s *SharingService) passUniqueCode(used map[string]struct{}) (string, error) {
	for attempt := 0; attempt < s.rotationAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate sharing code: %w", err)
		}
		if _, taken := used[code]; !taken {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

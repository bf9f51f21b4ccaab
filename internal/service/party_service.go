package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/notifications"
	"linkparty/internal/observability"
	"linkparty/internal/repository"
	"linkparty/internal/storage"
	"linkparty/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeGenAttempts  = 5
	sweepPageSize    = 50
	defaultPartyName = "Link Party"
)

// PartyService provides party room lifecycle business logic.
type PartyService struct {
	partyRepo  repository.PartyRepository
	inviteRepo repository.InviteRepository
	store      storage.ObjectStorage
	notifier   *notifications.Notifier
	partyTTL   time.Duration
	now        func() time.Time
}

// NewPartyService returns a new PartyService. store and notifier may be nil.
func NewPartyService(
	partyRepo repository.PartyRepository,
	inviteRepo repository.InviteRepository,
	store storage.ObjectStorage,
	notifier *notifications.Notifier,
	partyTTL time.Duration,
) *PartyService {
	return &PartyService{
		partyRepo:  partyRepo,
		inviteRepo: inviteRepo,
		store:      store,
		notifier:   notifier,
		partyTTL:   partyTTL,
		now:        time.Now,
	}
}

// SweepResult reports how much a cleanup pass removed.
type SweepResult struct {
	PartiesDeleted int64 `json:"parties_deleted"`
	InvitesDeleted int64 `json:"invites_deleted"`
}

// CreateParty creates a party room and its host member in one transaction.
func (s *PartyService) CreateParty(ctx context.Context, sessionID, displayName, partyName, password string, userID *uint) (*models.Party, error) {
	if sessionID == "" {
		return nil, models.NewValidationError("session id is required")
	}
	displayName, err := validation.DisplayName(displayName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	partyName, err = validation.PartyName(partyName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if partyName == "" {
		partyName = defaultPartyName
	}

	active, err := s.partyRepo.CountActiveByHost(ctx, sessionID, s.now())
	if err != nil {
		return nil, err
	}
	if active >= models.MaxPartiesPerHost {
		return nil, models.NewConflictError(
			fmt.Sprintf("You already host %d active parties. Wait for one to expire.", models.MaxPartiesPerHost))
	}

	var passwordHash string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(fmt.Errorf("hash party password: %w", err))
		}
		passwordHash = string(hash)
	}

	// Code collisions are rare (32^6 space) but possible, so retry with a
	// fresh code instead of failing the request.
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := generatePartyCode()
		if err != nil {
			return nil, models.NewInternalError(err)
		}

		party := &models.Party{
			Code:          code,
			Name:          partyName,
			PasswordHash:  passwordHash,
			HostSessionID: sessionID,
			ExpiresAt:     s.now().Add(s.partyTTL),
		}
		host := &models.PartyMember{
			SessionID:   sessionID,
			DisplayName: displayName,
			IsHost:      true,
			UserID:      userID,
		}

		err = s.partyRepo.CreateWithHost(ctx, party, host)
		if errors.Is(err, repository.ErrDuplicateEdge) {
			continue
		}
		if err != nil {
			return nil, err
		}
		party.Members = []models.PartyMember{*host}
		return party, nil
	}
	return nil, models.NewInternalError(fmt.Errorf("could not allocate a unique party code after %d attempts", codeGenAttempts))
}

// JoinParty joins (or rejoins) a party by code. Wrong or missing passwords
// are rejected before any member row is written.
func (s *PartyService) JoinParty(ctx context.Context, code, sessionID, displayName, password string, userID *uint) (*models.Party, error) {
	if sessionID == "" {
		return nil, models.NewValidationError("session id is required")
	}
	code, err := validation.PartyCode(code)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	displayName, err = validation.DisplayName(displayName)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	party, err := s.partyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if party.Expired(s.now()) {
		return nil, models.NewGoneError("This party has expired")
	}

	if party.HasPassword() {
		if password == "" {
			return nil, models.NewCredentialError("This party requires a password.")
		}
		if bcrypt.CompareHashAndPassword([]byte(party.PasswordHash), []byte(password)) != nil {
			return nil, models.NewCredentialError("Incorrect party password.")
		}
	}

	existing, err := s.partyRepo.GetMember(ctx, party.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Only new joiners count against the cap; a rejoin always works.
		count, err := s.partyRepo.CountMembers(ctx, party.ID)
		if err != nil {
			return nil, err
		}
		if count >= models.MaxPartyMembers {
			return nil, models.NewConflictError("This party is full")
		}
	}

	member := &models.PartyMember{
		PartyID:     party.ID,
		SessionID:   sessionID,
		DisplayName: displayName,
		IsHost:      sessionID == party.HostSessionID,
		UserID:      userID,
	}
	if err := s.partyRepo.UpsertMember(ctx, member); err != nil {
		return nil, err
	}

	s.publishPartyEvent(ctx, code, "member_joined", map[string]any{
		"session_id":   sessionID,
		"display_name": displayName,
	})

	return s.partyRepo.GetWithMembers(ctx, code)
}

// LeaveParty removes the member. The host leaving deletes the whole party.
func (s *PartyService) LeaveParty(ctx context.Context, code, sessionID string) error {
	code, err := validation.PartyCode(code)
	if err != nil {
		return models.NewValidationError(err.Error())
	}

	party, err := s.partyRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if sessionID == party.HostSessionID {
		if err := s.partyRepo.Delete(ctx, party.ID); err != nil {
			return err
		}
		s.publishPartyEvent(ctx, code, "party_closed", map[string]any{"reason": "host_left"})
		return nil
	}

	removed, err := s.partyRepo.DeleteMember(ctx, party.ID, sessionID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundMessageError("You are not a member of this party")
	}

	s.publishPartyEvent(ctx, code, "member_left", map[string]any{"session_id": sessionID})
	return nil
}

// GetParty returns the party and its members. Expired parties read as gone.
func (s *PartyService) GetParty(ctx context.Context, code string) (*models.Party, error) {
	code, err := validation.PartyCode(code)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	party, err := s.partyRepo.GetWithMembers(ctx, code)
	if err != nil {
		return nil, err
	}
	if party.Expired(s.now()) {
		return nil, models.NewGoneError("This party has expired")
	}
	return party, nil
}

// Sweep deletes expired parties (and their queue images, best-effort) and
// expired invite tokens. It pages through expired parties so an interrupted
// run still makes progress, and aborts on the first row-deletion failure
// while reporting what it removed so far.
func (s *PartyService) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	for {
		expired, err := s.partyRepo.ListExpired(ctx, s.now(), sweepPageSize)
		if err != nil {
			return result, err
		}
		if len(expired) == 0 {
			break
		}

		for _, party := range expired {
			s.deleteQueueImages(ctx, party.ID)

			if err := s.partyRepo.Delete(ctx, party.ID); err != nil {
				return result, err
			}
			result.PartiesDeleted++
			observability.SweepPartiesDeleted.Inc()
		}

		if len(expired) < sweepPageSize {
			break
		}
	}

	invites, err := s.inviteRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return result, err
	}
	result.InvitesDeleted = invites

	return result, nil
}

// deleteQueueImages removes stored queue images for a party. Failures are
// logged and counted; an orphaned blob is preferable to a stuck sweep.
func (s *PartyService) deleteQueueImages(ctx context.Context, partyID uint) {
	if s.store == nil {
		return
	}
	paths, err := s.partyRepo.QueueImagePaths(ctx, partyID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "collect queue image paths failed", "party_id", partyID, "error", err)
		return
	}
	for _, path := range paths {
		if err := s.store.Delete(ctx, path); err != nil {
			observability.SweepImageDeleteFailures.Inc()
			middleware.Logger.WarnContext(ctx, "delete queue image failed", "path", path, "error", err)
		}
	}
}

func (s *PartyService) publishPartyEvent(ctx context.Context, code, eventType string, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	event, err := json.Marshal(map[string]any{"type": eventType, "payload": payload})
	if err != nil {
		return
	}
	if err := s.notifier.PublishParty(ctx, code, string(event)); err != nil {
		middleware.Logger.WarnContext(ctx, "party event publish failed", "code", code, "type", eventType, "error", err)
	}
}

// generatePartyCode draws 6 characters from the code alphabet with crypto
// randomness. The alphabet has 32 entries so a byte maps cleanly without
// modulo bias.
func generatePartyCode() (string, error) {
	buf := make([]byte, models.PartyCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate party code: %w", err)
	}
	code := make([]byte, models.PartyCodeLength)
	for i, b := range buf {
		code[i] = models.PartyCodeAlphabet[int(b)%len(models.PartyCodeAlphabet)]
	}
	return string(code), nil
}

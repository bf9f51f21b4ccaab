package service

import (
	"context"
	"fmt"
	"time"

	"linkparty/internal/mailer"
	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/repository"
	"linkparty/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	invitesPerPartyLimit  = 10
	invitesPerPartyWindow = time.Hour
	claimBatchSize        = 10
)

// InviteService creates email invites and claims them into friendships.
type InviteService struct {
	inviteRepo repository.InviteRepository
	friendRepo repository.FriendRepository
	partyRepo  repository.PartyRepository
	dispatcher Dispatcher
	mail       mailer.Mailer
	rdb        *redis.Client
	appBaseURL string
	inviteTTL  time.Duration
	now        func() time.Time
}

// NewInviteService returns a new InviteService. mail, rdb and dispatcher may
// be nil.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	friendRepo repository.FriendRepository,
	partyRepo repository.PartyRepository,
	dispatcher Dispatcher,
	mail mailer.Mailer,
	rdb *redis.Client,
	appBaseURL string,
	inviteTTL time.Duration,
) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		friendRepo: friendRepo,
		partyRepo:  partyRepo,
		dispatcher: dispatcher,
		mail:       mail,
		rdb:        rdb,
		appBaseURL: appBaseURL,
		inviteTTL:  inviteTTL,
		now:        time.Now,
	}
}

// CreateInvite stores an invite token for the email and sends the invitation
// mail best-effort. Invites are rate limited per party through the shared
// redis counter, so the limit holds across instances.
func (s *InviteService) CreateInvite(ctx context.Context, inviterID uint, partyCode, email string) (*models.InviteToken, error) {
	code, err := validation.PartyCode(partyCode)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email, err = validation.Email(email)
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

	allowed, err := middleware.CheckRateLimit(ctx, s.rdb, "party_invites", code, invitesPerPartyLimit, invitesPerPartyWindow)
	if err != nil {
		// The limit is advisory; fail open when the counter store is down.
		middleware.Logger.WarnContext(ctx, "invite rate limit check failed", "code", code, "error", err)
	} else if !allowed {
		return nil, models.NewConflictError("Invite limit reached for this party. Try again later.")
	}

	invite := &models.InviteToken{
		Token:     uuid.NewString(),
		InviterID: inviterID,
		PartyCode: code,
		Email:     email,
		ExpiresAt: s.now().Add(s.inviteTTL),
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	s.sendInviteMail(ctx, invite, party.Name)
	return invite, nil
}

// ClaimInvites claims unclaimed, unexpired invites addressed to the email and
// turns each one into a mutual friendship with its inviter, unless a
// relationship already exists. Returns the number of friendships created.
//
// The claim itself is a guarded update on the claimed flag, so two concurrent
// claims of the same token resolve to exactly one winner and the loser moves
// on without error.
func (s *InviteService) ClaimInvites(ctx context.Context, userID uint, email, partyCode string) (int, error) {
	email, err := validation.Email(email)
	if err != nil {
		return 0, models.NewValidationError(err.Error())
	}

	invites, err := s.inviteRepo.ListClaimable(ctx, email, s.now(), claimBatchSize)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, invite := range invites {
		if partyCode != "" && invite.PartyCode != partyCode {
			continue
		}
		// Inviting yourself creates no friendship and burns no token.
		if invite.InviterID == userID {
			continue
		}

		claimed, err := s.inviteRepo.MarkClaimed(ctx, invite.ID)
		if err != nil {
			return created, err
		}
		if !claimed {
			continue
		}

		edges, err := s.friendRepo.GetBetweenUsers(ctx, userID, invite.InviterID)
		if err != nil {
			return created, err
		}
		if len(edges) > 0 {
			continue
		}

		// Clicking the invite is the acceptance, so both accepted rows are
		// written directly.
		if err := s.friendRepo.CreateAcceptedPair(ctx, userID, invite.InviterID); err != nil {
			return created, err
		}
		created++

		if s.dispatcher != nil {
			if err := s.dispatcher.Notify(ctx, invite.InviterID, models.NotificationTypeFriendAccepted,
				"Invite accepted",
				"Someone you invited joined and is now your friend",
				map[string]any{"user_id": userID, "party_code": invite.PartyCode}); err != nil {
				middleware.Logger.WarnContext(ctx, "invite claim notification failed",
					"inviter_id", invite.InviterID, "error", err)
			}
		}
	}
	return created, nil
}

func (s *InviteService) sendInviteMail(ctx context.Context, invite *models.InviteToken, partyName string) {
	if s.mail == nil {
		return
	}
	link := fmt.Sprintf("%s/join/%s?invite=%s", s.appBaseURL, invite.PartyCode, invite.Token)
	msg := mailer.Message{
		To:      invite.Email,
		Subject: fmt.Sprintf("You're invited to %s", partyName),
		HTML: fmt.Sprintf(
			`<p>You've been invited to join <strong>%s</strong>.</p><p><a href="%s">Join the party</a> with code <strong>%s</strong>.</p>`,
			partyName, link, invite.PartyCode),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		middleware.Logger.WarnContext(ctx, "invite email failed", "email", invite.Email, "error", err)
	}
}

package services

import (
	"context"
	"errors"

	"github.com/isdelr/timeshare-be/internal/models"
)

// TeamServiceProvider defines the interface for the team overview.
type TeamServiceProvider interface {
	Overview(ctx context.Context, userID string) (models.TeamOverview, error)
	Profile(ctx context.Context, requesterID, targetID string) (models.UserProfile, error)
}

type connectionLister interface {
	ListConnections(ctx context.Context, userID string) ([]models.Connection, error)
	FindUserByID(ctx context.Context, userID string) (models.User, error)
	FindConnection(ctx context.Context, userA, userB string) (models.Connection, error)
}

type timeSummarizer interface {
	Summary(ctx context.Context, userID string) (total, today, sessions int, err error)
}

// TeamService lists the users connected to someone through sharing codes.
type TeamService struct {
	connections connectionLister
	times       timeSummarizer
}

// NewTeamService creates a new TeamService.
func NewTeamService(connections connectionLister, times timeSummarizer) *TeamService {
	return &TeamService{connections: connections, times: times}
}

// Overview returns the owners userID can view, with their tracked time, and
// the viewers who can see userID. Viewers' own time is not included.
func (s *TeamService) Overview(ctx context.Context, userID string) (models.TeamOverview, error) {
	conns, err := s.connections.ListConnections(ctx, userID)
	if err != nil {
		return models.TeamOverview{}, err
	}

	overview := models.TeamOverview{
		Owners:  []models.TeamMember{},
		Viewers: []models.TeamMember{},
	}
	for _, conn := range conns {
		otherID := conn.OwnerID
		if conn.OwnerID == userID {
			otherID = conn.ViewerID
		}

		other, err := s.connections.FindUserByID(ctx, otherID)
		if err != nil {
			return models.TeamOverview{}, err
		}
		member := models.TeamMember{PublicUser: other.Public(), ConnectedAt: conn.CreatedAt}

		if conn.ViewerID == userID {
			member.TotalMinutes, member.TodayMinutes, member.Sessions, err = s.times.Summary(ctx, otherID)
			if err != nil {
				return models.TeamOverview{}, err
			}
			overview.Owners = append(overview.Owners, member)
			overview.Stats.TotalMinutes += member.TotalMinutes
		} else {
			overview.Viewers = append(overview.Viewers, member)
		}
	}

	overview.Stats.TotalOwners = len(overview.Owners)
	overview.Stats.TotalViewers = len(overview.Viewers)
	return overview, nil
}

// Profile returns targetID's profile to a user connected with them in
// either direction. Asking for one's own profile is invalid input.
func (s *TeamService) Profile(ctx context.Context, requesterID, targetID string) (models.UserProfile, error) {
	if requesterID == targetID {
		return models.UserProfile{}, invalidInput("use the own profile endpoint")
	}

	target, err := s.connections.FindUserByID(ctx, targetID)
	if err != nil {
		return models.UserProfile{}, err
	}

	conn, err := s.connections.FindConnection(ctx, requesterID, targetID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return models.UserProfile{}, ErrForbidden
		}
		return models.UserProfile{}, err
	}

	return models.UserProfile{
		PublicUser:   target.Public(),
		Role:         target.Role,
		MemberSince:  target.CreatedAt,
		ConnectedAt:  conn.CreatedAt,
		CanViewHours: conn.OwnerID == targetID,
	}, nil
}

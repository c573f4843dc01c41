package service

import (
	"context"

	"github.com/marketloop/gateway/src/hub"
	"github.com/marketloop/gateway/src/presence"
	"github.com/marketloop/gateway/src/types"
	"github.com/rs/zerolog"
)

// Client-originated events the relay handles.
const (
	EventGetLoggedInUsers   = "getLoggedInUsers"
	EventLoggedInUsers      = "loggedInUsers"
	EventRemoveLoggedInUser = "removeLoggedInUser"
	EventCategory           = "category"
)

// EventOnline carries the current presence membership to all clients.
const EventOnline = "online"

// Presence is the slice of the presence store the relay needs.
type Presence interface {
	Announce(ctx context.Context, key, userID string) []string
	Remove(ctx context.Context, key, userID string) []string
	Members(ctx context.Context, key string) []string
	SetCategory(ctx context.Context, key, value string)
}

// Service wires client-originated presence events to the shared store
// and broadcasts the resulting membership to every client on every
// replica. It is the gateway-side counterpart of the upstream bridges:
// they feed the hub's broadcast path, the service feeds it from client
// input.
type Service struct {
	hub      *hub.Hub
	presence Presence
	logger   zerolog.Logger
}

// New creates the relay service.
func New(h *hub.Hub, p Presence, logger zerolog.Logger) *Service {
	return &Service{
		hub:      h,
		presence: p,
		logger:   logger.With().Str("component", "relay-service").Logger(),
	}
}

// Register installs the client event handlers on the hub.
func (s *Service) Register() {
	s.hub.RegisterHandler(EventGetLoggedInUsers, s.handleGetLoggedInUsers)
	s.hub.RegisterHandler(EventLoggedInUsers, s.handleLoggedInUsers)
	s.hub.RegisterHandler(EventRemoveLoggedInUser, s.handleRemoveLoggedInUser)
	s.hub.RegisterHandler(EventCategory, s.handleCategory)
}

func (s *Service) handleGetLoggedInUsers(_ string, _ types.Message) error {
	members := s.presence.Members(context.Background(), presence.UsersKey)
	s.broadcastOnline(members)
	return nil
}

func (s *Service) handleLoggedInUsers(clientID string, msg types.Message) error {
	userID, ok := ResolveIdentity(msg.Arg(0))
	if !ok {
		s.logger.Warn().Str("client_id", clientID).Msg("loggedInUsers: invalid identity")
		return nil
	}
	members := s.presence.Announce(context.Background(), presence.UsersKey, userID)
	s.broadcastOnline(members)
	return nil
}

func (s *Service) handleRemoveLoggedInUser(clientID string, msg types.Message) error {
	userID, ok := ResolveIdentity(msg.Arg(0))
	if !ok {
		s.logger.Warn().Str("client_id", clientID).Msg("removeLoggedInUser: invalid identity")
		return nil
	}
	members := s.presence.Remove(context.Background(), presence.UsersKey, userID)
	s.broadcastOnline(members)
	return nil
}

func (s *Service) handleCategory(clientID string, msg types.Message) error {
	category, okCat := resolveCategory(msg.Arg(0))
	userID, okUser := ResolveIdentity(msg.Arg(1))
	if !okCat || !okUser {
		s.logger.Warn().Str("client_id", clientID).Msg("category: invalid category or identity")
		return nil
	}
	s.presence.SetCategory(context.Background(), presence.CategoryKeyPrefix+userID, category)
	return nil
}

// broadcastOnline emits the membership list to all clients on all
// replicas. A nil list is sent as an empty array.
func (s *Service) broadcastOnline(members []string) {
	if members == nil {
		members = []string{}
	}
	msg, err := types.New(EventOnline, members)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode online event")
		return
	}
	s.hub.Broadcast(msg)
}

package impl

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	"github.com/jrjohn/tandem-cloud-go/pkg/logger"
)

// Domain event names
const (
	eventInvitationSent     = "invitation_sent"
	eventInvitationCanceled = "invitation_cancelled"
	eventInvitationDeclined = "invitation_declined"
	eventInvitationAccepted = "invitation_accepted"
	eventChatRemoved        = "chat_removed"
)

// connectionService implements service.ConnectionService
type connectionService struct {
	users       repository.UserRepository
	connections repository.ConnectionRepository
	hasShown    repository.HasShownRepository
	profiles    repository.ProfileRepository
	messages    repository.MessageRepository
	limits      *config.Limits
	publisher   notification.Publisher
	metrics     *observability.MetricsProvider
	logger      *zap.Logger
}

// NewConnectionService creates a new ConnectionService instance
func NewConnectionService(
	users repository.UserRepository,
	connections repository.ConnectionRepository,
	hasShown repository.HasShownRepository,
	profiles repository.ProfileRepository,
	messages repository.MessageRepository,
	limits *config.Limits,
	publisher notification.Publisher,
	metrics *observability.MetricsProvider,
	log *zap.Logger,
) service.ConnectionService {
	return &connectionService{
		users:       users,
		connections: connections,
		hasShown:    hasShown,
		profiles:    profiles,
		messages:    messages,
		limits:      limits,
		publisher:   publisher,
		metrics:     metrics,
		logger:      log.Named("connection"),
	}
}

func (s *connectionService) SendInvitation(ctx context.Context, caller security.Identity, receiverID string) (resp *response.SendInvitationResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "connection.SendInvitation", observability.AttrUserID.String(caller.ID))
	defer func() {
		observability.EndSpan(span, err)
		s.recordEvent(ctx, eventInvitationSent, err)
	}()

	if receiverID == "" || receiverID == caller.ID {
		return nil, service.ErrSelfInvitation
	}
	for _, id := range []string{caller.ID, receiverID} {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return nil, service.ErrUserNotFound
		}
	}

	open, err := s.connections.FindOpenBetween(ctx, caller.ID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find connection: %w", err)
	}
	if open != nil {
		return nil, service.ErrAlreadyConnected
	}

	limits := s.limits.Get()
	reserved, err := s.users.ReserveCounter(ctx, caller.ID, entity.FieldActiveSentInvitations, limits.MaxActiveSentInvitations)
	if err != nil {
		return nil, fmt.Errorf("reserve sent invitation: %w", err)
	}
	if !reserved {
		return nil, service.ErrSentQuota
	}

	// A receiver at quota still gets the connection, just not surfaced.
	visible, err := s.users.ReserveCounter(ctx, receiverID, entity.FieldActiveReceivedInvitations, limits.MaxActiveReceivedInvitations)
	if err != nil {
		s.release(ctx, caller.ID, entity.FieldActiveSentInvitations)
		return nil, fmt.Errorf("reserve received invitation: %w", err)
	}

	conn := &entity.Connection{
		SenderID:          caller.ID,
		ReceiverID:        receiverID,
		Status:            entity.StatusPending,
		VisibleToReceiver: visible,
	}
	if err := s.connections.Create(ctx, conn); err != nil {
		s.release(ctx, caller.ID, entity.FieldActiveSentInvitations)
		if visible {
			s.release(ctx, receiverID, entity.FieldActiveReceivedInvitations)
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}

	if visible {
		// The invitation is already committed; a missed mark is only logged.
		if err := s.hasShown.MarkInterested(ctx, receiverID, caller.ID); err != nil {
			s.logger.Warn("Has-shown update failed",
				logger.UserField(receiverID),
				logger.ConnectionField(conn.ID),
				zap.Error(err),
			)
		}
		s.publisher.Publish(ctx, notification.Notification{
			Kind:    notification.KindInvitationReceived,
			UserIDs: []string{receiverID},
			Title:   "New invitation",
			Body:    fmt.Sprintf("%s wants to connect with you", actorName(ctx, s.profiles, caller)),
			Data:    map[string]string{"connectionId": conn.ID, "senderId": caller.ID},
		})
	}

	s.logger.Info("Invitation sent",
		logger.UserField(caller.ID),
		logger.ConnectionField(conn.ID),
		zap.String("receiver_id", receiverID),
		zap.Bool("visible_to_receiver", visible),
	)

	return &response.SendInvitationResponse{
		Message:           "Invitation sent successfully",
		Success:           true,
		ConnectionID:      conn.ID,
		VisibleToReceiver: visible,
	}, nil
}

func (s *connectionService) ListSentActive(ctx context.Context, userID string) ([]response.Invitation, error) {
	conns, err := s.connections.ListSent(ctx, userID, entity.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	return s.invitations(ctx, userID, conns)
}

func (s *connectionService) ListReceivedActive(ctx context.Context, userID string) ([]response.Invitation, error) {
	conns, err := s.connections.ListReceived(ctx, userID, entity.StatusPending, true)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}
	return s.invitations(ctx, userID, conns)
}

func (s *connectionService) invitations(ctx context.Context, userID string, conns []*entity.Connection) ([]response.Invitation, error) {
	others := make([]string, len(conns))
	for i, c := range conns {
		others[i] = c.PartnerOf(userID)
	}
	people, err := summaries(ctx, s.profiles, uniqueStrings(others))
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	out := make([]response.Invitation, len(conns))
	for i, c := range conns {
		out[i] = response.Invitation{
			ConnectionID: c.ID,
			Status:       c.Status,
			CreatedAt:    c.CreatedAt,
			User:         people[others[i]],
		}
	}
	return out, nil
}

func (s *connectionService) RemoveSentInvitation(ctx context.Context, userID, connectionID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "connection.RemoveSentInvitation",
		observability.AttrUserID.String(userID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.recordEvent(ctx, eventInvitationCanceled, err)
	}()

	conn, err := s.closePending(ctx, connectionID, func(c *entity.Connection) bool { return c.SenderID == userID }, entity.StatusCancelled)
	if err != nil {
		return err
	}
	s.releaseInvitation(ctx, conn)

	// Only the receiver's view of the sender is flagged on cancel.
	if err := s.hasShown.SetFlags(ctx, conn.ReceiverID, conn.SenderID, true, false); err != nil {
		return fmt.Errorf("flag has_shown: %w", err)
	}

	s.logger.Info("Invitation cancelled", logger.UserField(userID), logger.ConnectionField(connectionID))
	return nil
}

func (s *connectionService) DeclineInvitation(ctx context.Context, userID, connectionID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "connection.DeclineInvitation",
		observability.AttrUserID.String(userID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.recordEvent(ctx, eventInvitationDeclined, err)
	}()

	conn, err := s.closePending(ctx, connectionID, func(c *entity.Connection) bool { return c.ReceiverID == userID }, entity.StatusDeclined)
	if err != nil {
		return err
	}
	s.releaseInvitation(ctx, conn)

	for _, pair := range [][2]string{{conn.ReceiverID, conn.SenderID}, {conn.SenderID, conn.ReceiverID}} {
		if err := s.hasShown.SetFlags(ctx, pair[0], pair[1], true, false); err != nil {
			return fmt.Errorf("flag has_shown: %w", err)
		}
	}

	s.logger.Info("Invitation declined", logger.UserField(userID), logger.ConnectionField(connectionID))
	return nil
}

// closePending moves a pending connection owned by a party matching isOwner
// to next. Nothing is mutated on failure.
func (s *connectionService) closePending(ctx context.Context, connectionID string, isOwner func(*entity.Connection) bool, next entity.ConnectionStatus) (*entity.Connection, error) {
	conn, err := s.pending(ctx, connectionID, isOwner)
	if err != nil {
		return nil, err
	}
	ok, err := s.connections.CompareAndSet(ctx, connectionID,
		map[string]any{entity.FieldStatus: string(entity.StatusPending)},
		map[string]any{entity.FieldStatus: string(next)},
	)
	if err != nil {
		return nil, fmt.Errorf("update connection: %w", err)
	}
	if !ok {
		return nil, service.ErrNotPending
	}
	conn.Status = next
	return conn, nil
}

func (s *connectionService) pending(ctx context.Context, connectionID string, isOwner func(*entity.Connection) bool) (*entity.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if conn == nil {
		return nil, service.ErrConnectionNotFound
	}
	if !isOwner(conn) {
		return nil, service.ErrNotParty
	}
	if conn.Status != entity.StatusPending {
		return nil, service.ErrNotPending
	}
	return conn, nil
}

// releaseInvitation decrements the invitation counters, floored at zero. The
// receiver's count only moves for invitations that were counted against it.
func (s *connectionService) releaseInvitation(ctx context.Context, conn *entity.Connection) {
	s.release(ctx, conn.SenderID, entity.FieldActiveSentInvitations)
	if conn.VisibleToReceiver {
		s.release(ctx, conn.ReceiverID, entity.FieldActiveReceivedInvitations)
	}
}

// release decrements a counter. Failures are logged and left to the
// reconciler.
func (s *connectionService) release(ctx context.Context, userID, field string) {
	if _, err := s.users.DecrementCounter(ctx, userID, field); err != nil {
		s.logger.Warn("Counter decrement failed",
			logger.UserField(userID),
			zap.String("field", field),
			zap.Error(err),
		)
	}
}

func (s *connectionService) AcceptInvitation(ctx context.Context, caller security.Identity, connectionID string) (chat *response.Chat, err error) {
	ctx, span := observability.StartSpan(ctx, "connection.AcceptInvitation",
		observability.AttrUserID.String(caller.ID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.recordEvent(ctx, eventInvitationAccepted, err)
	}()

	conn, err := s.pending(ctx, connectionID, func(c *entity.Connection) bool { return c.ReceiverID == caller.ID })
	if err != nil {
		return nil, err
	}

	reserved, err := s.users.ReserveCounter(ctx, caller.ID, entity.FieldActiveChats, s.limits.Get().MaxActiveChats)
	if err != nil {
		return nil, fmt.Errorf("reserve chat: %w", err)
	}
	if !reserved {
		return nil, service.ErrChatQuota
	}

	ok, err := s.connections.CompareAndSet(ctx, connectionID,
		map[string]any{entity.FieldStatus: string(entity.StatusPending)},
		map[string]any{
			entity.FieldStatus:                   string(entity.StatusChatActive),
			entity.FieldMessageCount:             0,
			entity.FieldDateProposalStatus:       string(entity.ProposalNone),
			entity.FieldDateProposalDate:         nil,
			entity.FieldDateProposalPlace:        nil,
			entity.FieldDateProposalProposerID:   nil,
			entity.FieldDateProposalLastActionBy: nil,
		},
	)
	if err != nil || !ok {
		s.release(ctx, caller.ID, entity.FieldActiveChats)
		if err != nil {
			return nil, fmt.Errorf("update connection: %w", err)
		}
		return nil, service.ErrNotPending
	}

	s.releaseInvitation(ctx, conn)
	if err := s.users.IncrementCounter(ctx, conn.SenderID, entity.FieldActiveChats); err != nil {
		s.logger.Warn("Counter increment failed", logger.UserField(conn.SenderID), zap.Error(err))
	}
	for _, pair := range [][2]string{{conn.ReceiverID, conn.SenderID}, {conn.SenderID, conn.ReceiverID}} {
		if err := s.hasShown.MarkInterested(ctx, pair[0], pair[1]); err != nil {
			return nil, fmt.Errorf("mark interested: %w", err)
		}
	}

	s.publisher.Publish(ctx, notification.Notification{
		Kind:    notification.KindInvitationAccepted,
		UserIDs: []string{conn.SenderID},
		Title:   "Invitation accepted",
		Body:    fmt.Sprintf("%s accepted your invitation. Say hello!", actorName(ctx, s.profiles, caller)),
		Data:    map[string]string{"connectionId": conn.ID, "receiverId": caller.ID},
	})

	s.logger.Info("Invitation accepted", logger.UserField(caller.ID), logger.ConnectionField(connectionID))

	updated, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("reload connection: %w", err)
	}
	if updated == nil {
		return nil, service.ErrConnectionNotFound
	}
	chats, err := s.chats(ctx, caller.ID, []*entity.Connection{updated})
	if err != nil {
		return nil, err
	}
	return &chats[0], nil
}

func (s *connectionService) ListActiveChats(ctx context.Context, userID string) ([]response.Chat, error) {
	conns, err := s.connections.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	chats, err := s.chats(ctx, userID, conns)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(chats, func(a, b response.Chat) int {
		return b.LastActivity().Compare(a.LastActivity())
	})
	return chats, nil
}

func (s *connectionService) chats(ctx context.Context, userID string, conns []*entity.Connection) ([]response.Chat, error) {
	partners := make([]string, len(conns))
	ids := make([]string, len(conns))
	for i, c := range conns {
		partners[i] = c.PartnerOf(userID)
		ids[i] = c.ID
	}
	people, err := summaries(ctx, s.profiles, uniqueStrings(partners))
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	inboxes, err := s.messages.ListInboxes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inboxes: %w", err)
	}

	limit := s.limits.Get().MessageLimit
	out := make([]response.Chat, len(conns))
	for i, c := range conns {
		chat := response.Chat{
			ConnectionID:       c.ID,
			Partner:            people[partners[i]],
			MessageCount:       c.MessageCount,
			RemainingMessages:  max(0, limit-c.MessageCount),
			DateProposalStatus: c.ProposalStatus(),
			CreatedAt:          c.CreatedAt,
			UpdatedAt:          c.UpdatedAt,
		}
		if inbox := inboxes[c.ID]; inbox != nil {
			chat.LatestMessage = &response.LatestMessage{
				Message:     inbox.LatestMessage,
				MessageType: inbox.LatestMessageType,
				SenderID:    inbox.LatestMessageSender,
				Timestamp:   inbox.LatestMessageAt,
				IsRead:      inbox.IsRead,
			}
		}
		out[i] = chat
	}
	return out, nil
}

func (s *connectionService) RemoveChat(ctx context.Context, userID, connectionID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "connection.RemoveChat",
		observability.AttrUserID.String(userID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.recordEvent(ctx, eventChatRemoved, err)
	}()

	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("load connection: %w", err)
	}
	if conn == nil {
		return service.ErrConnectionNotFound
	}
	if !conn.IsParty(userID) {
		return service.ErrNotParty
	}
	if conn.Status != entity.StatusChatActive {
		return service.ErrChatNotActive
	}

	next := entity.StatusChatRemovedByReceiver
	if conn.SenderID == userID {
		next = entity.StatusChatRemovedBySender
	}
	ok, err := s.connections.CompareAndSet(ctx, connectionID,
		map[string]any{entity.FieldStatus: string(entity.StatusChatActive)},
		map[string]any{entity.FieldStatus: string(next)},
	)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}
	if !ok {
		return service.ErrChatNotActive
	}

	s.release(ctx, conn.SenderID, entity.FieldActiveChats)
	s.release(ctx, conn.ReceiverID, entity.FieldActiveChats)

	s.logger.Info("Chat removed",
		logger.UserField(userID),
		logger.ConnectionField(connectionID),
		zap.String("status", string(next)),
	)
	return nil
}

func (s *connectionService) recordEvent(ctx context.Context, event string, err error) {
	s.metrics.RecordDomainEvent(ctx, event, eventOutcome(err))
}

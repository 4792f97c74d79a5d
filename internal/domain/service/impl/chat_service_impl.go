package impl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	"github.com/jrjohn/tandem-cloud-go/internal/utils"
	"github.com/jrjohn/tandem-cloud-go/pkg/logger"
)

const (
	eventMessageSent  = "message_sent"
	eventDateProposed = "date_proposed"
	eventDateResponse = "date_response"

	// dateLayout renders RFC3339 proposal dates in system messages.
	dateLayout = "Mon, Jan 2 2006 at 3:04 PM"

	previewLength = 100
)

// chatService implements service.ChatService
type chatService struct {
	connections repository.ConnectionRepository
	messages    repository.MessageRepository
	profiles    repository.ProfileRepository
	limits      *config.Limits
	publisher   notification.Publisher
	metrics     *observability.MetricsProvider
	logger      *zap.Logger
}

// NewChatService creates a new ChatService instance
func NewChatService(
	connections repository.ConnectionRepository,
	messages repository.MessageRepository,
	profiles repository.ProfileRepository,
	limits *config.Limits,
	publisher notification.Publisher,
	metrics *observability.MetricsProvider,
	log *zap.Logger,
) service.ChatService {
	return &chatService{
		connections: connections,
		messages:    messages,
		profiles:    profiles,
		limits:      limits,
		publisher:   publisher,
		metrics:     metrics,
		logger:      log.Named("chat"),
	}
}

// party loads a connection the caller participates in.
func (s *chatService) party(ctx context.Context, userID, connectionID string) (*entity.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if conn == nil {
		return nil, service.ErrConnectionNotFound
	}
	if !conn.IsParty(userID) {
		return nil, service.ErrNotParty
	}
	return conn, nil
}

func (s *chatService) active(ctx context.Context, userID, connectionID string) (*entity.Connection, error) {
	conn, err := s.party(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status != entity.StatusChatActive {
		return nil, service.ErrChatNotActive
	}
	return conn, nil
}

func (s *chatService) GetChatState(ctx context.Context, userID, connectionID string) (*response.ChatState, error) {
	conn, err := s.party(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}

	limit := s.limits.Get().MessageLimit
	remaining := max(0, limit-conn.MessageCount)
	open := conn.Status == entity.StatusChatActive && remaining > 0
	inFlight := conn.ProposalStatus().InFlight()

	return &response.ChatState{
		ConnectionID:      conn.ID,
		Status:            conn.Status,
		MessageCount:      conn.MessageCount,
		MessageLimit:      limit,
		RemainingMessages: remaining,
		PartnerID:         conn.PartnerOf(userID),
		DateProposal: response.DateProposal{
			Status:       conn.ProposalStatus(),
			Date:         conn.DateProposalDate,
			Place:        conn.DateProposalPlace,
			ProposerID:   conn.DateProposalProposerID,
			LastActionBy: conn.DateProposalLastActionBy,
		},
		CanProposeDate:   open && !inFlight,
		CanRespondToDate: open && inFlight && conn.LastActionBy() != userID,
	}, nil
}

func (s *chatService) SendMessage(ctx context.Context, caller security.Identity, connectionID, content, messageType string) (msg *entity.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "chat.SendMessage",
		observability.AttrUserID.String(caller.ID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordDomainEvent(ctx, eventMessageSent, eventOutcome(err))
	}()

	kind := entity.MessageType(strings.ToLower(strings.TrimSpace(messageType)))
	if kind == "" {
		kind = entity.MessageText
	}
	if !kind.IsUserContent() {
		return nil, service.ErrInvalidMessageType
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, service.ErrEmptyContent
	}

	conn, err := s.active(ctx, caller.ID, connectionID)
	if err != nil {
		return nil, err
	}

	msg = &entity.Message{
		ConnectionID: conn.ID,
		SenderID:     caller.ID,
		MessageType:  kind,
		Message:      content,
	}
	if kind == entity.MessageImage {
		url := content
		msg.Message = entity.ImagePlaceholder
		msg.ImageURL = &url
	}

	if err := s.reserve(ctx, conn); err != nil {
		return nil, err
	}
	if err := s.store(ctx, conn, msg); err != nil {
		return nil, err
	}

	s.notifyPartner(ctx, conn, caller, notification.KindNewMessage,
		actorName(ctx, s.profiles, caller), utils.TruncateString(msg.Message, previewLength))
	return msg, nil
}

// reserve spends one unit of the message budget.
func (s *chatService) reserve(ctx context.Context, conn *entity.Connection) error {
	reserved, err := s.connections.ReserveMessage(ctx, conn.ID, s.limits.Get().MessageLimit)
	if err != nil {
		return fmt.Errorf("reserve message: %w", err)
	}
	if !reserved {
		return service.ErrMessageLimit
	}
	return nil
}

func (s *chatService) release(ctx context.Context, conn *entity.Connection) {
	if err := s.connections.ReleaseMessage(context.WithoutCancel(ctx), conn.ID); err != nil {
		s.logger.Warn("Message release failed", logger.ConnectionField(conn.ID), zap.Error(err))
	}
}

// store saves msg against a budget unit already reserved and refreshes the
// inbox projection. The unit is released if the message cannot be stored.
func (s *chatService) store(ctx context.Context, conn *entity.Connection, msg *entity.Message) error {
	if err := s.messages.Create(ctx, msg); err != nil {
		s.release(ctx, conn)
		return fmt.Errorf("create message: %w", err)
	}

	inbox := &entity.MessagesInbox{
		ID:                  conn.ID,
		SenderID:            conn.SenderID,
		ReceiverID:          conn.ReceiverID,
		LatestMessage:       msg.Message,
		LatestMessageType:   msg.MessageType,
		LatestMessageSender: msg.SenderID,
		LatestMessageAt:     msg.Timestamp,
	}
	if err := s.messages.UpsertInbox(ctx, inbox); err != nil {
		s.logger.Warn("Inbox update failed", logger.ConnectionField(conn.ID), zap.Error(err))
	}
	return nil
}

func (s *chatService) ProposeDate(ctx context.Context, caller security.Identity, connectionID, date, place string) (conn *entity.Connection, err error) {
	ctx, span := observability.StartSpan(ctx, "chat.ProposeDate",
		observability.AttrUserID.String(caller.ID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordDomainEvent(ctx, eventDateProposed, eventOutcome(err))
	}()

	date, place = strings.TrimSpace(date), strings.TrimSpace(place)
	if date == "" || place == "" {
		return nil, service.ErrDateDetailsRequired
	}

	conn, err = s.active(ctx, caller.ID, connectionID)
	if err != nil {
		return nil, err
	}
	current := conn.ProposalStatus()
	if current.InFlight() {
		return nil, service.ErrProposalInFlight
	}
	// The system message is paid for before the proposal changes, so a full
	// budget leaves the proposal untouched.
	if err := s.reserve(ctx, conn); err != nil {
		return nil, err
	}

	ok, err := s.connections.CompareAndSet(ctx, conn.ID,
		map[string]any{
			entity.FieldStatus:             string(entity.StatusChatActive),
			entity.FieldDateProposalStatus: string(current),
		},
		map[string]any{
			entity.FieldDateProposalStatus:       string(entity.ProposalProposed),
			entity.FieldDateProposalDate:         date,
			entity.FieldDateProposalPlace:        place,
			entity.FieldDateProposalProposerID:   caller.ID,
			entity.FieldDateProposalLastActionBy: caller.ID,
		},
	)
	if err != nil {
		s.release(ctx, conn)
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	if !ok {
		s.release(ctx, conn)
		return nil, service.ErrProposalInFlight
	}

	name := actorName(ctx, s.profiles, caller)
	text := fmt.Sprintf("%s proposed a date at %s on %s", name, place, formatDate(date))
	if err := s.writeSystem(ctx, conn, caller.ID, entity.MessageDateProposal, text); err != nil {
		return nil, err
	}

	s.notifyPartner(ctx, conn, caller, notification.KindDateProposal, "Date proposal", text)
	return s.reload(ctx, conn.ID)
}

func (s *chatService) RespondToDateProposal(ctx context.Context, caller security.Identity, connectionID, responseType string, details *request.DateDetails) (conn *entity.Connection, err error) {
	ctx, span := observability.StartSpan(ctx, "chat.RespondToDateProposal",
		observability.AttrUserID.String(caller.ID),
		observability.AttrConnectionID.String(connectionID),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.RecordDomainEvent(ctx, eventDateResponse, eventOutcome(err))
	}()

	responseType = strings.ToLower(strings.TrimSpace(responseType))
	var newDate, newPlace string
	switch responseType {
	case service.ResponseAccept, service.ResponseReject:
	case service.ResponseModify:
		if details != nil {
			newDate, newPlace = strings.TrimSpace(details.Date), strings.TrimSpace(details.Place)
		}
		if newDate == "" || newPlace == "" {
			return nil, service.ErrModifyDetailsRequired
		}
	default:
		return nil, service.ErrInvalidResponseType
	}

	conn, err = s.active(ctx, caller.ID, connectionID)
	if err != nil {
		return nil, err
	}
	current := conn.ProposalStatus()
	if !current.InFlight() {
		return nil, service.ErrNoActiveProposal
	}
	lastActor := conn.LastActionBy()
	if lastActor == caller.ID {
		return nil, service.ErrSelfResponse
	}
	if err := s.reserve(ctx, conn); err != nil {
		return nil, err
	}

	name := actorName(ctx, s.profiles, caller)
	fields := map[string]any{entity.FieldDateProposalLastActionBy: caller.ID}
	var text string
	switch responseType {
	case service.ResponseAccept:
		fields[entity.FieldDateProposalStatus] = string(entity.ProposalAccepted)
		text = fmt.Sprintf("%s accepted the date at %s on %s", name, deref(conn.DateProposalPlace), formatDate(deref(conn.DateProposalDate)))
	case service.ResponseReject:
		fields[entity.FieldDateProposalStatus] = string(entity.ProposalRejected)
		fields[entity.FieldDateProposalDate] = nil
		fields[entity.FieldDateProposalPlace] = nil
		fields[entity.FieldDateProposalProposerID] = nil
		text = fmt.Sprintf("%s declined the date proposal", name)
	case service.ResponseModify:
		fields[entity.FieldDateProposalStatus] = string(entity.ProposalModified)
		fields[entity.FieldDateProposalDate] = newDate
		fields[entity.FieldDateProposalPlace] = newPlace
		text = fmt.Sprintf("%s suggested a new plan: %s on %s", name, newPlace, formatDate(newDate))
	}

	ok, err := s.connections.CompareAndSet(ctx, conn.ID,
		map[string]any{
			entity.FieldStatus:                   string(entity.StatusChatActive),
			entity.FieldDateProposalStatus:       string(current),
			entity.FieldDateProposalLastActionBy: lastActor,
		},
		fields,
	)
	if err != nil {
		s.release(ctx, conn)
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	if !ok {
		s.release(ctx, conn)
		return nil, service.ErrConcurrentUpdate
	}

	if err := s.writeSystem(ctx, conn, caller.ID, entity.MessageDateResponse, text); err != nil {
		return nil, err
	}

	s.notifyPartner(ctx, conn, caller, notification.KindDateResponse, "Date update", text)
	return s.reload(ctx, conn.ID)
}

// writeSystem stores a system message against an already reserved unit.
func (s *chatService) writeSystem(ctx context.Context, conn *entity.Connection, senderID string, kind entity.MessageType, text string) error {
	return s.store(ctx, conn, &entity.Message{
		ConnectionID: conn.ID,
		SenderID:     senderID,
		MessageType:  kind,
		Message:      text,
	})
}

func (s *chatService) GetChatMessages(ctx context.Context, userID, connectionID string) ([]*entity.Message, error) {
	if _, err := s.party(ctx, userID, connectionID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConnection(ctx, connectionID, s.limits.Get().TranscriptLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*entity.Message{}
	}
	return msgs, nil
}

func (s *chatService) reload(ctx context.Context, connectionID string) (*entity.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("reload connection: %w", err)
	}
	if conn == nil {
		return nil, service.ErrConnectionNotFound
	}
	return conn, nil
}

func (s *chatService) notifyPartner(ctx context.Context, conn *entity.Connection, caller security.Identity, kind notification.Kind, title, body string) {
	s.publisher.Publish(ctx, notification.Notification{
		Kind:    kind,
		UserIDs: []string{conn.PartnerOf(caller.ID)},
		Title:   title,
		Body:    body,
		Data:    map[string]string{"connectionId": conn.ID, "senderId": caller.ID},
	})
}

// formatDate renders RFC3339 input in a readable form and anything else as is.
func formatDate(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format(dateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

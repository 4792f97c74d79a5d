package service

import (
	apperrors "github.com/jrjohn/tandem-cloud-go/pkg/errors"
)

// Domain errors returned by the services. Controllers render them with
// their Status and Message.
var (
	ErrUserNotFound       = apperrors.ErrNotFound.WithMessage("user not found")
	ErrLocationNotFound   = apperrors.ErrNotFound.WithMessage("user location not found")
	ErrConnectionNotFound = apperrors.ErrNotFound.WithMessage("connection not found")

	ErrNotParty = apperrors.ErrForbidden.WithMessage("not authorized for this connection")

	ErrNotPending       = apperrors.ErrConflict.WithMessage("invitation is no longer pending")
	ErrChatNotActive    = apperrors.ErrConflict.WithMessage("chat is not active")
	ErrAlreadyConnected = apperrors.ErrConflict.WithMessage("a connection with this user already exists")
	ErrProposalInFlight = apperrors.ErrConflict.WithMessage("a date proposal is already pending")
	ErrNoActiveProposal = apperrors.ErrConflict.WithMessage("there is no active date proposal")
	ErrSelfResponse     = apperrors.ErrConflict.WithMessage("you cannot respond to your own date proposal")
	ErrConcurrentUpdate = apperrors.ErrConflict.WithMessage("connection was modified concurrently, retry")

	ErrSentQuota    = apperrors.ErrQuotaExceeded.WithMessage("maximum active sent invitations reached")
	ErrChatQuota    = apperrors.ErrQuotaExceeded.WithMessage("maximum active chats reached")
	ErrMessageLimit = apperrors.ErrQuotaExceeded.WithMessage("message limit reached for this chat")

	ErrSelfInvitation        = apperrors.ErrValidation.WithMessage("cannot send an invitation to yourself")
	ErrInvalidMessageType    = apperrors.ErrValidation.WithMessage("messageType must be text or image")
	ErrEmptyContent          = apperrors.ErrValidation.WithMessage("content is required")
	ErrInvalidResponseType   = apperrors.ErrValidation.WithMessage("responseType must be accept, reject or modify")
	ErrModifyDetailsRequired = apperrors.ErrValidation.WithMessage("newDetails with date and place is required to modify")
	ErrDateDetailsRequired   = apperrors.ErrValidation.WithMessage("date and place are required")
)

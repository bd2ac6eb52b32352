package handler

import (
	"context"
	"errors"
	"fmt"

	"duesreminder/internal/application/dto"
	"duesreminder/internal/application/service"
	appErrors "duesreminder/internal/pkg/errors"
	"duesreminder/internal/pkg/logger"
)

// Command names understood by the bot.
const (
	CommandStart      = "start"
	CommandMembership = "membership"
	CommandConfirm    = "confirm"
	CommandStatus     = "status"
)

const (
	usageMembership = "Usage: /membership <user_id> <group_id_1> [<group_id_2> ...]"
	usageConfirm    = "Usage: /confirm <user_id>"
	usageStatus     = "Usage: /status <user_id>"
	replyNotFound   = "User not found"
	replyFailure    = "Something went wrong, please check the logs."
)

// CommandHandler dispatches administrator commands to the membership service.
type CommandHandler struct {
	adminID           string
	membershipService service.MembershipService
	messages          service.Messages
	log               logger.Logger
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(
	adminID string,
	membershipService service.MembershipService,
	messages service.Messages,
	log logger.Logger,
) *CommandHandler {
	return &CommandHandler{
		adminID:           adminID,
		membershipService: membershipService,
		messages:          messages,
		log:               log,
	}
}

// Handle runs a command from senderID and returns the reply text. ok is
// false when nothing should be sent back: unknown commands, and admin
// commands from anyone but the administrator.
func (h *CommandHandler) Handle(ctx context.Context, senderID, command string, args []string) (reply string, ok bool) {
	if command == CommandStart {
		return h.messages.Greeting(), true
	}

	switch command {
	case CommandMembership, CommandConfirm, CommandStatus:
	default:
		h.log.Debug(fmt.Sprintf("Ignoring unknown command %q from %s", command, senderID))
		return "", false
	}
	if senderID != h.adminID {
		h.log.Warn(fmt.Sprintf("Ignoring /%s from non-admin %s", command, senderID))
		return "", false
	}

	switch command {
	case CommandMembership:
		return h.enroll(ctx, args), true
	case CommandConfirm:
		return h.confirm(ctx, args), true
	default:
		return h.status(ctx, args), true
	}
}

func (h *CommandHandler) enroll(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return usageMembership
	}
	resp, err := h.membershipService.Enroll(ctx, dto.EnrollRequest{MemberID: args[0], GroupIDs: args[1:]})
	if err != nil {
		return h.errorReply(err, usageMembership)
	}
	return h.messages.EnrollAck(resp.MemberID, resp.DueDate)
}

func (h *CommandHandler) confirm(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return usageConfirm
	}
	resp, err := h.membershipService.ConfirmPayment(ctx, dto.ConfirmPaymentRequest{MemberID: args[0]})
	if err != nil {
		return h.errorReply(err, usageConfirm)
	}
	return h.messages.ConfirmAck(resp.MemberID, resp.DueDate)
}

func (h *CommandHandler) status(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return usageStatus
	}
	resp, err := h.membershipService.GetMembership(ctx, args[0])
	if err != nil {
		return h.errorReply(err, usageStatus)
	}
	text := fmt.Sprintf("User %s: %s\nLast paid: %s\nDue date: %s\nGroups: %v",
		resp.MemberID, resp.Status, resp.LastPaid, resp.DueDate, resp.Groups)
	for _, a := range resp.Pending {
		text += fmt.Sprintf("\n- %s at %s", a.Kind, a.At.Format("2006-01-02 15:04 MST"))
	}
	return text
}

// errorReply maps service errors to user-visible replies.
func (h *CommandHandler) errorReply(err error, usage string) string {
	switch {
	case errors.Is(err, appErrors.ErrMemberNotFound):
		return replyNotFound
	case errors.Is(err, appErrors.ErrInvalidArgument):
		return fmt.Sprintf("%v\n%s", err, usage)
	default:
		h.log.Error("Command failed", err)
		return replyFailure
	}
}

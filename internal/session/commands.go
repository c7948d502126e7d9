package session

import (
	"context"
	"fmt"
	"strings"

	"subburn/internal/logging"
)

// HandleCommand answers a slash command. Commands never change session state.
func (m *Manager) HandleCommand(ctx context.Context, chatID int64, command string) string {
	command = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	var reply string
	switch command {
	case "start", "help":
		reply = msgUsage + "\nResults come back as " + DeliveryModeLabel(m.deps.DeliveryMode) + "."
	case "status":
		snap, ok := m.Snapshot(chatID)
		if !ok {
			reply = msgNoSession
			break
		}
		reply = fmt.Sprintf(msgStatus, shortID(snap.ID), snap.State.Label())
	default:
		reply = msgUnknownCommand
	}

	m.logger.Debug("command handled",
		logging.Int64(logging.FieldUserID, chatID),
		logging.String("command", command),
	)
	m.notify(ctx, chatID, reply)
	return reply
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

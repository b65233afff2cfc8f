package providers

import "buildboard/internal/domain"

// wireMessage is the role/content shape shared by all three provider APIs.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWireMessages(messages []domain.ChatMessage) []wireMessage {
	wire := make([]wireMessage, len(messages))
	for i, m := range messages {
		wire[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}
	return wire
}

// splitSystem separates leading system messages from conversation turns,
// concatenating their content for APIs that take the system prompt out of band.
func splitSystem(messages []domain.ChatMessage) (string, []domain.ChatMessage) {
	var system string
	turns := make([]domain.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

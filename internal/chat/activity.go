package chat

// ActivityType enumerates inbound/outbound chat activity kinds.
type ActivityType string

const (
	ActivityMessage            ActivityType = "message"
	ActivityConversationUpdate ActivityType = "conversationUpdate"
)

// AdaptiveCardContentType marks card attachments on outbound activities.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Attachment carries a rendered card payload. The content is opaque to the
// coordination logic.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

// Activity is the unit exchanged with the chat channel. Inbound activities
// carry either free text or a card submission value; outbound activities
// carry text or card attachments.
type Activity struct {
	ID             string         `json:"id,omitempty"`
	Type           ActivityType   `json:"type"`
	ConversationID string         `json:"conversationId"`
	Text           string         `json:"text,omitempty"`
	Value          map[string]any `json:"value,omitempty"`
	Attachments    []Attachment   `json:"attachments,omitempty"`
	MembersAdded   []string       `json:"membersAdded,omitempty"`
}

// NewMessage builds an outbound text activity.
func NewMessage(conversationID, text string) Activity {
	return Activity{
		Type:           ActivityMessage,
		ConversationID: conversationID,
		Text:           text,
	}
}

// NewCardMessage builds an outbound activity carrying a single adaptive card.
func NewCardMessage(conversationID string, card any) Activity {
	return Activity{
		Type:           ActivityMessage,
		ConversationID: conversationID,
		Attachments: []Attachment{{
			ContentType: AdaptiveCardContentType,
			Content:     card,
		}},
	}
}

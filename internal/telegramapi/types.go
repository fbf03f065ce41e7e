package telegramapi

import "strings"

type Update struct {
	UpdateID     int64              `json:"update_id"`
	Message      *Message           `json:"message,omitempty"`
	MyChatMember *ChatMemberUpdated `json:"my_chat_member,omitempty"`
}

type Message struct {
	MessageID       int64  `json:"message_id"`
	MessageThreadID int64  `json:"message_thread_id,omitempty"`
	IsTopicMessage  bool   `json:"is_topic_message,omitempty"`
	Date            int64  `json:"date,omitempty"`
	Chat            *Chat  `json:"chat,omitempty"`
	From            *User  `json:"from,omitempty"`
	Text            string `json:"text,omitempty"`
	Caption         string `json:"caption,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type ChatMember struct {
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

// ChatMemberUpdated is delivered when the bot's own membership changes.
type ChatMemberUpdated struct {
	Chat          *Chat       `json:"chat,omitempty"`
	From          *User       `json:"from,omitempty"`
	OldChatMember *ChatMember `json:"old_chat_member,omitempty"`
	NewChatMember *ChatMember `json:"new_chat_member,omitempty"`
}

// Joined reports a transition from outside the chat to a member of it.
func (u *ChatMemberUpdated) Joined() bool {
	if u == nil || u.OldChatMember == nil || u.NewChatMember == nil {
		return false
	}
	return !isMemberStatus(u.OldChatMember.Status) && isMemberStatus(u.NewChatMember.Status)
}

func isMemberStatus(status string) bool {
	switch strings.TrimSpace(status) {
	case "creator", "administrator", "member", "restricted":
		return true
	default:
		return false
	}
}

func DisplayName(u *User) string {
	if u == nil {
		return ""
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	username := strings.TrimSpace(u.Username)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case username != "":
		return "@" + username
	default:
		return ""
	}
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type SendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	MessageThreadID       int64  `json:"message_thread_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	ReplyToMessageID      int64  `json:"reply_to_message_id,omitempty"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

type leaveChatRequest struct {
	ChatID int64 `json:"chat_id"`
}

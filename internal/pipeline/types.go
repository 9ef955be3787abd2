package pipeline

// Origin identifies which upstream extractor produced a fragment.
type Origin string

const (
	// OriginKVRow is a key/value record from the state database.
	OriginKVRow Origin = "kv_row"
	// OriginLogMatch is a pattern match pulled out of a log file.
	OriginLogMatch Origin = "log_match"
	// OriginMarkupBlock is an HTML-like block found in a log file.
	OriginMarkupBlock Origin = "markup_block"
)

// RawFragment is one candidate message recovered from local storage,
// not yet validated as a real message. Payload is either a parsed
// structured object (map[string]any) or a plain string.
type RawFragment struct {
	Origin  Origin
	Key     string // row key for kv fragments, empty otherwise
	Payload any
	Source  string // provenance: file name or table name
}

// Role tags a message with its speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleUnknown   Role = "unknown"
)

// CanonicalMessage is a validated, role-tagged message ready for assembly.
// Timestamp is nil when the fragment carried none; zero is a real value.
type CanonicalMessage struct {
	Role      Role
	Content   string
	Timestamp *float64
	Source    string
	ID        string
}

// Conversation is an ordered run of canonical messages representing one
// reconstructed exchange. It owns its messages: assembly always copies,
// so downstream truncation or reordering never touches shared state.
type Conversation struct {
	ID       string
	Model    string
	Messages []CanonicalMessage
}

// MessageCount returns the number of messages in the conversation.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// TotalLength returns the combined content length in bytes.
func (c *Conversation) TotalLength() int {
	total := 0
	for _, m := range c.Messages {
		total += len(m.Content)
	}
	return total
}

// Complete reports whether the conversation has at least one user and
// one assistant message.
func (c *Conversation) Complete() bool {
	var hasUser, hasAssistant bool
	for _, m := range c.Messages {
		switch m.Role {
		case RoleUser:
			hasUser = true
		case RoleAssistant:
			hasAssistant = true
		}
	}
	return hasUser && hasAssistant
}

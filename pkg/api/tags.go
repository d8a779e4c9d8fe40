package api

// Tag - внутренний числовой идентификатор входящего сообщения.
type Tag uint8

const (
	TagUnknown Tag = iota

	// Синтезируются транспортом, по сети не приходят
	TagConnecting
	TagConnect
	TagDisconnect

	TagLatencyReply
	TagFullSync
	TagDeltaUpdate
	TagActionBroadcast
	TagCatalogUpdate
	TagAssignedIdentity
	TagRosterUpdate
	TagRemovedFromRoom
	TagPrivilegedRelay
	TagAssignedRole
	TagSystemMessage
	TagDirectChat
)

// Маппинг для конвертации wire -> Tag
var tagStringToTag = map[string]Tag{
	"connecting": TagConnecting,
	"connect":    TagConnect,
	"disconnect": TagDisconnect,
	"pong":       TagLatencyReply,
	"gsfull":     TagFullSync,
	"gsupdate":   TagDeltaUpdate,
	"action":     TagActionBroadcast,
	"gamelist":   TagCatalogUpdate,
	"clientid":   TagAssignedIdentity,
	"clientlist": TagRosterUpdate,
	"kick":       TagRemovedFromRoom,
	"sudo":       TagPrivilegedRelay,
	"playingas":  TagAssignedRole,
	"message":    TagSystemMessage,
	"chat":       TagDirectChat,
}

// Маппинг для логов Tag -> wire
var tagToString = map[Tag]string{
	TagConnecting:       "connecting",
	TagConnect:          "connect",
	TagDisconnect:       "disconnect",
	TagLatencyReply:     "pong",
	TagFullSync:         "gsfull",
	TagDeltaUpdate:      "gsupdate",
	TagActionBroadcast:  "action",
	TagCatalogUpdate:    "gamelist",
	TagAssignedIdentity: "clientid",
	TagRosterUpdate:     "clientlist",
	TagRemovedFromRoom:  "kick",
	TagPrivilegedRelay:  "sudo",
	TagAssignedRole:     "playingas",
	TagSystemMessage:    "message",
	TagDirectChat:       "chat",
}

// ParseTag конвертирует строку из конверта в Tag.
// Теги чувствительны к регистру: это имена каналов сервера.
func ParseTag(s string) Tag {
	if val, ok := tagStringToTag[s]; ok {
		return val
	}
	return TagUnknown
}

// String реализует интерфейс Stringer (для логов)
func (t Tag) String() string {
	if val, ok := tagToString[t]; ok {
		return val
	}
	return "unknown"
}

// Исходящие каналы (клиент -> сервер)
const (
	OutJoinGame   = "joingame"
	OutLeaveGame  = "leavegame"
	OutAction     = "action"
	OutPing       = "ping"
	OutChangeName = "changename"
	OutChat       = "chat"
)

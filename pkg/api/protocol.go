package api

import (
	"errors"
	"fmt"
)

// ErrUnknownTag - тег не входит в протокол. Маршрутизатор такие кадры молча
// пропускает (совместимость с более новым сервером).
var ErrUnknownTag = errors.New("unknown tag")

// --- СЕРВЕР -> КЛИЕНТ ---

// Message - закрытое объединение входящих сообщений.
// Каждому тегу соответствует ровно один тип со своей схемой.
type Message interface{ isMessage() }

// Connecting - транспорт начал установку соединения.
type Connecting struct{}

// Connected - соединение установлено.
type Connected struct{}

// Disconnected - соединение потеряно.
type Disconnected struct{}

// LatencyReply - ответ на ping.
type LatencyReply struct{}

// FullSync - полный снимок боя. Тело разбирает движок правил.
type FullSync struct {
	Snapshot Frame
}

// DeltaUpdate - частичный патч боя. Seq опционален (0 - не указан).
type DeltaUpdate struct {
	Seq   int64
	Patch Frame
}

// ActionBroadcast - действие, подтвержденное сервером.
type ActionBroadcast struct {
	Action Action
}

// GameSummary - строка каталога игр.
type GameSummary struct {
	CurrentPlayers    int    `json:"currentPlayers"`
	MaxPlayers        int    `json:"maxPlayers"`
	MapSizeDescriptor string `json:"mapSizeDescriptor"`
}

// CatalogUpdate - частичное обновление каталога. Reset - явный сигнал
// заменить каталог целиком.
type CatalogUpdate struct {
	Games map[string]GameSummary `json:"games"`
	Reset bool                   `json:"reset,omitempty"`
}

// AssignedIdentity - сервер выдал идентификатор подключения.
type AssignedIdentity struct {
	ID ClientID
}

// RosterUpdate - изменение списка клиентов комнаты.
// Значение nil означает, что клиент ушел.
type RosterUpdate struct {
	Full    bool
	Clients map[ClientID]*string
}

// RemovedFromRoom - нас выкинули из комнаты.
type RemovedFromRoom struct{}

// PrivilegedRelay - оператор просит переотправить сообщение в канал.
type PrivilegedRelay struct {
	Channel string `json:"channel"`
	Message any    `json:"message"`
}

// AssignedRole - номер игрока в текущем бою (-1 - зритель).
type AssignedRole struct {
	ID int `json:"id"`
}

// SystemMessage - строка для лога.
type SystemMessage struct {
	Text string
}

// DirectChat - входящий чат. To заполнен для личных сообщений.
type DirectChat struct {
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Message string `json:"message"`
}

// Directed сообщает, что сообщение личное.
func (c DirectChat) Directed() bool {
	return c.To != ""
}

func (Connecting) isMessage()       {}
func (Connected) isMessage()        {}
func (Disconnected) isMessage()     {}
func (LatencyReply) isMessage()     {}
func (FullSync) isMessage()         {}
func (DeltaUpdate) isMessage()      {}
func (ActionBroadcast) isMessage()  {}
func (CatalogUpdate) isMessage()    {}
func (AssignedIdentity) isMessage() {}
func (RosterUpdate) isMessage()     {}
func (RemovedFromRoom) isMessage()  {}
func (PrivilegedRelay) isMessage()  {}
func (AssignedRole) isMessage()     {}
func (SystemMessage) isMessage()    {}
func (DirectChat) isMessage()       {}

// --- КЛИЕНТ -> СЕРВЕР ---

// JoinRequest - запрос входа в игру из каталога.
type JoinRequest struct {
	GameID string `json:"gameId"`
}

// ChatRequest - исходящий чат. Пустой To - сообщение всей комнате.
type ChatRequest struct {
	To      string `json:"to,omitempty"`
	Message string `json:"message"`
}

// PingRequest - зонд задержки.
type PingRequest struct{}

// --- Декодирование ---

// Decode превращает кадр в типизированное сообщение.
// Неизвестный тег -> ErrUnknownTag, битое тело -> ошибка разбора/валидации.
func Decode(f Frame) (Message, error) {
	switch ParseTag(f.Tag) {
	case TagConnecting:
		return Connecting{}, nil
	case TagConnect:
		return Connected{}, nil
	case TagDisconnect:
		return Disconnected{}, nil
	case TagLatencyReply:
		return LatencyReply{}, nil
	case TagRemovedFromRoom:
		return RemovedFromRoom{}, nil

	case TagFullSync:
		if f.Empty() {
			return nil, fmt.Errorf("gsfull: %w", ErrEmptyPayload)
		}
		return FullSync{Snapshot: f}, nil

	case TagDeltaUpdate:
		if f.Empty() {
			return nil, fmt.Errorf("gsupdate: %w", ErrEmptyPayload)
		}
		var hdr struct {
			Seq int64 `json:"seq,omitempty"`
		}
		if err := f.Decode(&hdr); err != nil {
			return nil, fmt.Errorf("gsupdate: %w", err)
		}
		return DeltaUpdate{Seq: hdr.Seq, Patch: f}, nil

	case TagActionBroadcast:
		var a Action
		if err := bind(f, &a); err != nil {
			return nil, err
		}
		return ActionBroadcast{Action: a}, nil

	case TagCatalogUpdate:
		return decodeCatalog(f)

	case TagAssignedIdentity:
		var id ClientID
		if err := f.Decode(&id); err != nil {
			return nil, fmt.Errorf("clientid: %w", err)
		}
		return AssignedIdentity{ID: id}, nil

	case TagRosterUpdate:
		return decodeRoster(f)

	case TagPrivilegedRelay:
		var p PrivilegedRelay
		if err := bind(f, &p); err != nil {
			return nil, err
		}
		return p, nil

	case TagAssignedRole:
		var r AssignedRole
		if err := bind(f, &r); err != nil {
			return nil, err
		}
		return r, nil

	case TagSystemMessage:
		var s string
		if err := f.Decode(&s); err != nil {
			return nil, fmt.Errorf("message: %w", err)
		}
		return SystemMessage{Text: s}, nil

	case TagDirectChat:
		var c DirectChat
		if err := bind(f, &c); err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, f.Tag)
	}
}

// bind распаковывает тело и, если тип умеет, валидирует его.
func bind[T any](f Frame, v *T) error {
	if err := f.Decode(v); err != nil {
		return fmt.Errorf("%s: invalid payload format: %w", f.Tag, err)
	}
	if val, ok := any(*v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%s: validation failed: %w", f.Tag, err)
		}
	}
	return nil
}

// decodeCatalog принимает и {games, reset}, и "голую" карту id -> summary.
// Записи null пропускаются: удаление игр из каталога протокол не описывает.
func decodeCatalog(f Frame) (Message, error) {
	var wrapped struct {
		Games map[string]*GameSummary `json:"games"`
		Reset bool                    `json:"reset,omitempty"`
	}
	var games map[string]*GameSummary
	if err := f.Decode(&wrapped); err == nil && (wrapped.Games != nil || wrapped.Reset) {
		games = wrapped.Games
	} else {
		var flat map[string]*GameSummary
		if err := f.Decode(&flat); err != nil {
			return nil, fmt.Errorf("gamelist: invalid payload format: %w", err)
		}
		games = flat
	}

	upd := CatalogUpdate{Games: make(map[string]GameSummary, len(games)), Reset: wrapped.Reset}
	for id, g := range games {
		if g != nil {
			upd.Games[id] = *g
		}
	}
	if err := upd.Validate(); err != nil {
		return nil, fmt.Errorf("gamelist: validation failed: %w", err)
	}
	return upd, nil
}

// decodeRoster принимает и {full, clients}, и плоскую карту с ключом "full".
func decodeRoster(f Frame) (Message, error) {
	var raw map[string]any
	if err := f.Decode(&raw); err != nil {
		return nil, fmt.Errorf("clientlist: invalid payload format: %w", err)
	}

	upd := RosterUpdate{Clients: make(map[ClientID]*string)}
	if full, ok := raw["full"].(bool); ok {
		upd.Full = full
	}

	entries, flat := raw, true
	if nested, ok := raw["clients"].(map[string]any); ok {
		entries, flat = nested, false
	}

	for key, val := range entries {
		if flat && (key == "full" || key == "clients") {
			continue
		}
		switch name := val.(type) {
		case nil:
			upd.Clients[ClientID(key)] = nil
		case string:
			n := name
			upd.Clients[ClientID(key)] = &n
		default:
			return nil, fmt.Errorf("clientlist: name for %q has type %T", key, val)
		}
	}
	return upd, nil
}

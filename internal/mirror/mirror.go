package mirror

import (
	"errors"
	"fmt"

	"cloudy-sword/internal/rules"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ErrNoState - полного снимка еще не было, патчить и применять нечего.
var ErrNoState = errors.New("mirror has no state")

// Mirror - локальная копия авторитетного состояния боя.
// Принадлежит контроллеру и не потокобезопасна.
type Mirror struct {
	engine   rules.Engine
	loaded   bool
	lastSeq  int64
	revision uint64
}

func New(engine rules.Engine) *Mirror {
	return &Mirror{engine: engine}
}

// LoadFull заменяет состояние целиком. Повторная загрузка того же снимка
// дает то же состояние. Сбрасывает базу нумерации патчей.
func (m *Mirror) LoadFull(snapshot api.Frame) error {
	if err := m.engine.Load(snapshot); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	m.loaded = true
	m.lastSeq = 0
	m.revision++
	return nil
}

// ApplyDelta накладывает патч в порядке получения.
// Seq необязателен: если он есть, дубликаты отбрасываются, а разрывы
// только логируются - следующий полный снимок все равно перезапишет состояние.
func (m *Mirror) ApplyDelta(d api.DeltaUpdate) error {
	if !m.loaded {
		return ErrNoState
	}

	log := logger.Component("mirror")

	if d.Seq > 0 {
		if d.Seq <= m.lastSeq {
			log.WithFields(logrus.Fields{
				"seq":      d.Seq,
				"last_seq": m.lastSeq,
			}).Debug("Stale delta dropped.")
			return nil
		}
		if m.lastSeq > 0 && d.Seq != m.lastSeq+1 {
			log.WithFields(logrus.Fields{
				"seq":      d.Seq,
				"expected": m.lastSeq + 1,
			}).Warn("Delta sequence gap.")
		}
	}

	// Непринятый патч номер не занимает: повторная отправка должна пройти.
	if err := m.engine.Update(d.Patch); err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}
	if d.Seq > 0 {
		m.lastSeq = d.Seq
	}
	m.revision++
	return nil
}

// Validate спрашивает движок о законности действия.
func (m *Mirror) Validate(a api.Action, player int) bool {
	if !m.loaded {
		return false
	}
	return m.engine.ValidAction(a, player)
}

// Apply применяет действие. В конвейере вызывается только после Validate,
// для действий, подтвержденных сервером, - без проверки.
func (m *Mirror) Apply(a api.Action) error {
	if !m.loaded {
		return ErrNoState
	}
	if err := m.engine.DoAction(a); err != nil {
		return fmt.Errorf("apply %s: %w", a, err)
	}
	m.revision++
	return nil
}

// Loaded сообщает, был ли получен полный снимок.
func (m *Mirror) Loaded() bool { return m.loaded }

// Revision - счетчик принятых изменений.
func (m *Mirror) Revision() uint64 { return m.revision }

// LastSeq - номер последнего принятого патча (0 - нумерации не было).
func (m *Mirror) LastSeq() int64 { return m.lastSeq }

// Snapshot возвращает сериализованное состояние движка.
func (m *Mirror) Snapshot() ([]byte, error) {
	if !m.loaded {
		return nil, ErrNoState
	}
	return m.engine.Snapshot()
}

// --- Запросы к движку ---

func (m *Mirror) OnGrid(c hexgrid.Cell) bool {
	return m.loaded && m.engine.OnGrid(c)
}

func (m *Mirror) Extent() (cols, rows int) {
	if !m.loaded {
		return 0, 0
	}
	return m.engine.Extent()
}

func (m *Mirror) UnitAt(c hexgrid.Cell) (rules.Unit, bool) {
	if !m.loaded {
		return rules.Unit{}, false
	}
	return m.engine.UnitAt(c)
}

func (m *Mirror) ValidTarget(caster, target hexgrid.Cell, ability int) bool {
	return m.loaded && m.engine.ValidTarget(caster, target, ability)
}

func (m *Mirror) ClearCache() {
	m.engine.ClearCache()
}

func (m *Mirror) Player(index int) (api.ClientID, bool) {
	if !m.loaded {
		return api.NoClient, false
	}
	return m.engine.Player(index)
}

func (m *Mirror) Turn() int {
	if !m.loaded {
		return 0
	}
	return m.engine.Turn()
}

// PlayerIndex - обратный поиск: номер игрока по clientId или -1.
func (m *Mirror) PlayerIndex(id api.ClientID) int {
	for i := 0; ; i++ {
		other, ok := m.Player(i)
		if !ok {
			return -1
		}
		if other == id {
			return i
		}
	}
}

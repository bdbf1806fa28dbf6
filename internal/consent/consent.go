// Package consent хранит согласие посетителя на необязательные cookie и сторонние встраивания.
// Состояние живёт в cookie браузера; сервер только читает и пересобирает его.
package consent

import (
	"encoding/json"
	"time"
)

// CookieName - имя cookie с согласием.
const CookieName = "rsip_gallery_consent"

// DefaultVersion - текущая версия политики. При смене версии согласие запрашивается заново.
const DefaultVersion = "1.0"

// State - сохранённые предпочтения посетителя. Essential всегда true.
type State struct {
	Essential bool      `json:"essential"`
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Preferences - частичное обновление. nil означает «оставить как было».
type Preferences struct {
	Analytics *bool `json:"analytics,omitempty"`
	Marketing *bool `json:"marketing,omitempty"`
}

// AllowsEmbeds сообщает, можно ли загружать сторонние встраивания (YouTube и т.п.).
// Отсутствие согласия равно отказу.
func (s *State) AllowsEmbeds() bool {
	return s != nil && s.Marketing
}

// AllowsAnalytics - аналогично для аналитики.
func (s *State) AllowsAnalytics() bool {
	return s != nil && s.Analytics
}

type Manager struct {
	version string
	now     func() time.Time
}

func NewManager(version string) *Manager {
	if version == "" {
		version = DefaultVersion
	}
	return &Manager{version: version, now: time.Now}
}

func (m *Manager) Version() string {
	return m.version
}

func (m *Manager) AcceptAll() State {
	return m.save(true, true)
}

func (m *Manager) RejectNonEssential() State {
	return m.save(false, false)
}

// Update применяет частичные изменения к текущему состоянию.
// Без текущего состояния незаданные категории считаются отклонёнными.
func (m *Manager) Update(current *State, p Preferences) State {
	var analytics, marketing bool
	if current != nil {
		analytics, marketing = current.Analytics, current.Marketing
	}
	if p.Analytics != nil {
		analytics = *p.Analytics
	}
	if p.Marketing != nil {
		marketing = *p.Marketing
	}
	return m.save(analytics, marketing)
}

// Parse читает значение cookie. Повреждённое значение или другая версия политики
// дают nil: посетитель ещё не давал согласия.
func (m *Manager) Parse(raw string) *State {
	if raw == "" {
		return nil
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	if s.Version != m.version {
		return nil
	}
	s.Essential = true
	return &s
}

// Encode сериализует состояние для записи в cookie.
func (m *Manager) Encode(s State) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m *Manager) save(analytics, marketing bool) State {
	return State{
		Essential: true,
		Analytics: analytics,
		Marketing: marketing,
		Timestamp: m.now().UTC(),
		Version:   m.version,
	}
}

package propeller

import (
	"log/slog"
	"sync"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/stages"
)

// Propeller — оркестратор сборки и deploy.
//
// Propeller:
//   - Выполняет строки задач по очереди, строго в порядке объявления
//   - Принимает запросы deploy и откладывает их до конца сборки
//   - После успешной сборки восстанавливает очередь задач, чтобы
//     следующий Run повторил тот же pipeline
//
// Все методы можно вызывать из разных горутин.
type Propeller struct {
	registry *stages.Registry
	observer Observer
	logger   *slog.Logger

	mu       sync.Mutex
	settings domain.Config

	// Очередь задач
	pending   []string // ещё не выполненные строки задач
	completed []string // выполненные в текущем run
	current   string   // выполняемая сейчас
	running   bool

	// Очередь deploy
	deploys   []string // имена окружений
	deploying bool
}

// Config — конфигурация Propeller.
type Config struct {
	// Registry — реестр stages (default: stages.DefaultRegistry()).
	Registry *stages.Registry

	// Settings — начальная конфигурация (tasks, environments, production).
	Settings domain.Config

	// Observer — получатель событий runs (default: NopObserver).
	Observer Observer

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Propeller.
func New(cfg Config) *Propeller {
	registry := cfg.Registry
	if registry == nil {
		registry = stages.DefaultRegistry()
	}

	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Propeller{
		registry: registry,
		observer: observer,
		logger:   logger,
	}
	p.Configure(cfg.Settings)
	return p
}

// Configure применяет patch к текущей конфигурации.
//
// Каждое заданное (non-nil) поле patch заменяет текущее целиком.
// Заданный Tasks также сбрасывает очередь задач на новый список.
func (p *Propeller) Configure(patch domain.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.settings = p.settings.Merge(patch)
	if patch.Tasks != nil {
		p.pending = append([]string(nil), patch.Tasks...)
		p.completed = nil
	}
}

// Extend регистрирует плагин (compiler и/или deployer).
// Возвращает false, если значение не реализует ни один интерфейс.
func (p *Propeller) Extend(plugin any) bool {
	return p.registry.Register(plugin)
}

// Enqueue добавляет строки задач в конец очереди.
func (p *Propeller) Enqueue(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, lines...)
}

// Pending возвращает копию очереди задач.
func (p *Propeller) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pending...)
}

// PendingDeploys возвращает копию очереди deploy.
func (p *Propeller) PendingDeploys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deploys...)
}

// Settings возвращает текущую конфигурацию.
func (p *Propeller) Settings() domain.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Merge с самим собой копирует срезы и map
	return p.settings.Merge(p.settings)
}

// IsRunning возвращает true, пока выполняется сборка.
func (p *Propeller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// IsDeploying возвращает true, пока разбирается очередь deploy.
func (p *Propeller) IsDeploying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deploying
}

// Registry возвращает реестр stages.
func (p *Propeller) Registry() *stages.Registry {
	return p.registry
}

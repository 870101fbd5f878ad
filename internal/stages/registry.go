package stages

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry — реестр compilers и deployers.
//
// Ключ — имя плагина в нижнем регистре. Повторная регистрация
// под тем же ключом перезаписывает предыдущий плагин.
// Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	compilers map[string]Compiler
	deployers map[string]Deployer
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		compilers: make(map[string]Compiler),
		deployers: make(map[string]Deployer),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными stages.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Compilers
	r.Register(NewCopyCompiler())
	r.Register(NewConcatCompiler())
	r.Register(NewSassCompiler())
	bundle := NewBundleCompiler()
	r.Register(bundle)
	r.RegisterCompiler(StageTypeWebpack, bundle)

	// Deployers
	r.Register(NewFileDeployer())
	r.Register(NewFTPDeployer())
	r.Register(NewSFTPDeployer())

	return r
}

// Register регистрирует плагин по его возможностям.
//
// Значение, реализующее Compiler, попадает в compilers, реализующее
// Deployer — в deployers (оба интерфейса — в оба реестра).
// Значение, не реализующее ни одного, молча игнорируется.
// Возвращает true, если плагин был зарегистрирован.
func (r *Registry) Register(plugin any) bool {
	registered := false
	if c, ok := plugin.(Compiler); ok {
		r.RegisterCompiler(c.Type(), c)
		registered = true
	}
	if d, ok := plugin.(Deployer); ok {
		r.RegisterDeployer(d.Type(), d)
		registered = true
	}
	return registered
}

// RegisterCompiler регистрирует compiler под именем name.
func (r *Registry) RegisterCompiler(name string, c Compiler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compilers[normalize(name)] = c
}

// RegisterDeployer регистрирует deployer под именем name.
func (r *Registry) RegisterDeployer(name string, d Deployer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deployers[normalize(name)] = d
}

// Compiler возвращает compiler по имени.
// Возвращает ErrCompilerNotFound, если compiler не найден.
func (r *Registry) Compiler(name string) (Compiler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.compilers[normalize(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCompilerNotFound, name)
	}
	return c, nil
}

// Deployer возвращает deployer по имени.
// Возвращает ErrDeployerNotFound, если deployer не найден.
func (r *Registry) Deployer(name string) (Deployer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.deployers[normalize(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDeployerNotFound, name)
	}
	return d, nil
}

// HasCompiler проверяет, зарегистрирован ли compiler.
func (r *Registry) HasCompiler(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.compilers[normalize(name)]
	return exists
}

// HasDeployer проверяет, зарегистрирован ли deployer.
func (r *Registry) HasDeployer(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.deployers[normalize(name)]
	return exists
}

// Compilers возвращает отсортированный список имён compilers.
func (r *Registry) Compilers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.compilers)
}

// Deployers возвращает отсортированный список имён deployers.
func (r *Registry) Deployers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.deployers)
}

// Unregister удаляет compiler и deployer с именем name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.compilers, normalize(name))
	delete(r.deployers, normalize(name))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

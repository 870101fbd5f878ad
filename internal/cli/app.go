package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/propeller/internal/api"
	"github.com/shaiso/propeller/internal/config"
	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/mq"
	"github.com/shaiso/propeller/internal/propeller"
	"github.com/shaiso/propeller/internal/repo"
	"github.com/shaiso/propeller/internal/stages"
	"github.com/shaiso/propeller/internal/telemetry"
)

// App — общее состояние команд: опции, логгер, вывод.
//
// Команды получают *App при создании, а читают его поля только в RunE,
// когда флаги уже разобраны и Setup отработал.
type App struct {
	Options *config.Options

	// Registry создаёт реестр stages (по умолчанию stages.DefaultRegistry).
	Registry func() *stages.Registry

	Logger *slog.Logger
	Out    *Output

	viper *viper.Viper
}

// NewApp создаёт App с опциями по умолчанию.
func NewApp() *App {
	return &App{
		Options:  config.NewOptions(),
		Registry: stages.DefaultRegistry,
		Logger:   slog.Default(),
		viper:    config.NewViper(),
	}
}

// Setup применяет переменные окружения, проверяет опции и
// настраивает логгер. Вызывается из PersistentPreRunE.
func (a *App) Setup(cmd *cobra.Command) error {
	if err := config.ApplyEnvironment(a.viper, cmd.Flags()); err != nil {
		return err
	}
	if err := a.Options.Validate(); err != nil {
		return err
	}

	a.Logger = telemetry.SetupLogger(a.Options.LogLevel, a.Options.LogFormat)
	if a.Out == nil {
		a.Out = NewOutput(a.Options.JSON)
	}
	return nil
}

// LoadConfig читает файл конфигурации и применяет --production.
func (a *App) LoadConfig() (domain.Config, error) {
	cfg, err := config.LoadFile(a.Options.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if a.Options.Production {
		cfg.Production = domain.Bool(true)
	}
	return cfg, nil
}

// Session — собранный Propeller со всеми подключенными observers.
type Session struct {
	Propeller *propeller.Propeller
	Config    domain.Config

	// Publisher — nil, если --amqp-url не задан.
	Publisher *mq.Publisher

	app      *App
	gatherer prometheus.Gatherer
	conn     *mq.Connection
	pool     *pgxpool.Pool
}

// Open загружает конфигурацию и собирает Propeller.
//
// Metrics подключаются при --metrics-addr, журнал при --db-url,
// события RabbitMQ при --amqp-url.
func (a *App) Open(ctx context.Context) (*Session, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		return nil, err
	}

	s := &Session{Config: cfg, app: a}
	observers := []propeller.Observer{NewConsole(a.Out)}

	if a.Options.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observers = append(observers, telemetry.NewMetrics(reg))
		s.gatherer = reg
	}

	if a.Options.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, a.Options.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.pool = pool
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			s.Close()
			return nil, err
		}
		observers = append(observers, repo.NewJournal(repo.NewRunRepo(pool), a.Logger))
	}

	if a.Options.AMQPURL != "" {
		conn, err := mq.Dial(mq.ConnectionConfig{
			URL:       a.Options.AMQPURL,
			OnConnect: mq.SetupTopology,
			Logger:    a.Logger,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		s.conn = conn
		s.Publisher = mq.NewPublisher(conn, a.Logger)
		observers = append(observers, mq.NewNotifier(s.Publisher, a.Logger))
	}

	s.Propeller = propeller.New(propeller.Config{
		Registry: a.Registry(),
		Settings: cfg,
		Observer: propeller.Observers(observers...),
		Logger:   a.Logger,
	})
	return s, nil
}

// Serve выполняет fn и, если задан --metrics-addr, HTTP сервер
// (/healthz, /metrics и control API). Сервер останавливается, когда fn возвращается.
func (s *Session) Serve(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return fn(ctx)
	})
	if addr := s.app.Options.MetricsAddr; addr != "" {
		g.Go(func() error {
			return telemetry.Serve(ctx, addr, s.handler(), s.app.Logger)
		})
	}
	return g.Wait()
}

// handler собирает mux: метрики плюс control API.
func (s *Session) handler() http.Handler {
	mux := telemetry.NewMux(s.gatherer)

	cfg := api.Config{
		Pipeline: s.Propeller,
		Logger:   s.app.Logger,
	}
	if s.pool != nil {
		cfg.Runs = repo.NewRunRepo(s.pool)
	}
	api.NewHandler(cfg).RegisterRoutes(mux)
	return mux
}

// Connection — соединение RabbitMQ или nil.
func (s *Session) Connection() *mq.Connection {
	return s.conn
}

// Pool — пул PostgreSQL или nil.
func (s *Session) Pool() *pgxpool.Pool {
	return s.pool
}

// Close закрывает соединения.
func (s *Session) Close() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.app.Logger.Warn("close amqp", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

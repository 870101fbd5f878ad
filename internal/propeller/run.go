package propeller

import (
	"context"
	"errors"
	"strings"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/stages"
)

// Run выполняет очередь задач, затем отложенные deploy.
//
// Задачи выполняются строго по одной в порядке очереди. Перед
// вызовом compiler'а строка разбирается и compiler ищется в реестре:
// ошибки разбора и поиска возвращаются как *engine.ConfigError.
// Ошибка compiler'а возвращается как *StageError, отложенные deploy
// при этом не запускаются.
//
// После успешной сборки очередь восстанавливается из выполненных
// задач. После ошибки очередь восстанавливается целиком в исходном
// порядке (выполненные + упавшая + оставшиеся).
//
// Возвращает ErrRunInProgress, если сборка или deploy уже идут.
func (p *Propeller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running || p.deploying {
		p.mu.Unlock()
		return ErrRunInProgress
	}
	p.running = true
	p.completed = nil
	production := p.settings.IsProduction()
	p.mu.Unlock()

	run := domain.NewRun(domain.PhaseBuild, production)
	run.MarkRunning()
	p.observer.RunStarted(ctx, run)

	log := p.logger.With("run_id", run.ID, "phase", run.Phase)
	log.Info("build started")

	err := p.runTasks(ctx, run, production)
	p.finishRun(ctx, run, err)

	// Завершение сборки и старт deploy — под одной блокировкой,
	// чтобы Deploy не проскочил между ними.
	p.mu.Lock()
	startDeploys := false
	if err != nil {
		p.restoreAfterFailure()
	} else {
		p.pending = append(p.completed, p.pending...)
		p.completed = nil
		startDeploys = len(p.deploys) > 0
		p.deploying = startDeploys
	}
	p.running = false
	p.mu.Unlock()

	if err != nil {
		log.Error("build failed", "error", err)
		return err
	}
	log.Info("build finished", "stages", len(run.Stages), "duration", run.Duration())

	if startDeploys {
		return p.drainDeploys(ctx)
	}
	return nil
}

// runTasks разбирает очередь задач до пустой.
func (p *Propeller) runTasks(ctx context.Context, run *domain.Run, production bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.mu.Lock()
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return nil
		}
		line := p.pending[0]
		p.pending = p.pending[1:]
		p.current = line
		p.mu.Unlock()

		if err := p.runTask(ctx, run, line, production); err != nil {
			return err
		}

		p.mu.Lock()
		p.completed = append(p.completed, line)
		p.current = ""
		p.mu.Unlock()
	}
}

// runTask выполняет одну строку задачи.
func (p *Propeller) runTask(ctx context.Context, run *domain.Run, line string, production bool) error {
	op, err := engine.ParseTask(line)
	if err != nil {
		return err
	}

	compiler, err := p.registry.Compiler(op.Stage)
	if err != nil {
		return engine.CompilerNotFound(op.Stage)
	}

	log := p.logger.With("run_id", run.ID, "task", line, "stage", op.Stage)

	idx := run.StartStage(domain.StageKindCompiler, op.Stage, line)
	p.observer.StageStarted(ctx, run, &run.Stages[idx])
	log.Debug("task started")

	err = compiler.Compile(ctx, stages.NewCompileRequest(op, production, log))

	result := run.FinishStage(idx, err)
	p.observer.StageFinished(ctx, run, result)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return &StageError{Kind: domain.StageKindCompiler, Stage: op.Stage, Target: line, Err: err}
	}

	log.Info("task finished", "duration", result.Duration())
	return nil
}

// restoreAfterFailure восстанавливает очередь задач в исходном порядке.
// Вызывается под p.mu.
func (p *Propeller) restoreAfterFailure() {
	restored := make([]string, 0, len(p.completed)+1+len(p.pending))
	restored = append(restored, p.completed...)
	if p.current != "" {
		restored = append(restored, p.current)
	}
	restored = append(restored, p.pending...)

	p.pending = restored
	p.completed = nil
	p.current = ""
}

// Deploy запрашивает deploy в окружение name.
//
// Если сборка не идёт и очередь deploy не разбирается, deploy
// выполняется сразу (вызов блокируется до конца и возвращает его
// ошибку). Иначе запрос ставится в очередь, Deploy возвращает nil,
// а окружение будет обработано, когда закончится текущая работа.
func (p *Propeller) Deploy(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return engine.NewConfigError(engine.ErrNoEnvironment, "", "")
	}

	p.mu.Lock()
	p.deploys = append(p.deploys, name)
	if p.running || p.deploying {
		p.mu.Unlock()
		p.logger.Debug("deploy deferred", "environment", name)
		return nil
	}
	p.deploying = true
	p.mu.Unlock()

	return p.drainDeploys(ctx)
}

// drainDeploys разбирает очередь deploy до пустой или до первой ошибки.
// Вызывается с уже выставленным p.deploying.
func (p *Propeller) drainDeploys(ctx context.Context) error {
	p.mu.Lock()
	production := p.settings.IsProduction()
	p.mu.Unlock()

	run := domain.NewRun(domain.PhaseDeploy, production)
	run.MarkRunning()
	p.observer.RunStarted(ctx, run)

	log := p.logger.With("run_id", run.ID, "phase", run.Phase)

	var err error
	for {
		if err = ctx.Err(); err != nil {
			break
		}

		p.mu.Lock()
		if len(p.deploys) == 0 {
			// Пустая очередь и сброс флага — атомарно
			p.deploying = false
			p.mu.Unlock()
			break
		}
		name := p.deploys[0]
		p.deploys = p.deploys[1:]
		env, ok := p.settings.Environments[name]
		production = p.settings.IsProduction()
		p.mu.Unlock()

		if err = p.deployOne(ctx, run, name, env, ok, production); err != nil {
			break
		}
	}

	if err != nil {
		p.mu.Lock()
		p.deploying = false
		p.mu.Unlock()
	}

	p.finishRun(ctx, run, err)
	if err != nil {
		log.Error("deploy failed", "error", err)
		return err
	}
	log.Info("deploy finished", "environments", len(run.Stages), "duration", run.Duration())
	return nil
}

// deployOne выполняет deploy в одно окружение.
func (p *Propeller) deployOne(ctx context.Context, run *domain.Run, name string, env domain.Environment, found bool, production bool) error {
	if !found {
		return engine.EnvironmentNotFound(name)
	}

	deployer, err := p.registry.Deployer(env.Type)
	if err != nil {
		return engine.DeployerNotFound(env.Type)
	}

	if r, ok := deployer.(stages.ConnectionRequirer); ok && r.RequiresConnection() && len(env.Connection) == 0 {
		return engine.MissingConnection(env.Type, name)
	}

	log := p.logger.With("run_id", run.ID, "environment", name, "stage", env.Type)

	idx := run.StartStage(domain.StageKindDeployer, env.Type, name)
	p.observer.StageStarted(ctx, run, &run.Stages[idx])
	log.Info("deploy started", "dest", env.Dest)

	err = deployer.Deploy(ctx, stages.NewDeployRequest(name, env, production, log))

	result := run.FinishStage(idx, err)
	p.observer.StageFinished(ctx, run, result)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return &StageError{Kind: domain.StageKindDeployer, Stage: env.Type, Target: name, Err: err}
	}
	return nil
}

// finishRun переводит run в терминальный статус и уведомляет observer.
func (p *Propeller) finishRun(ctx context.Context, run *domain.Run, err error) {
	if err != nil {
		run.MarkFailed(err.Error())
	} else {
		run.MarkSucceeded()
	}
	p.observer.RunFinished(ctx, run)
}

// RunAndDeploy выполняет сборку, затем deploy окружений envs по порядку.
// При ошибке сборки deploy не запускаются.
func (p *Propeller) RunAndDeploy(ctx context.Context, envs ...string) error {
	if err := p.Run(ctx); err != nil {
		return err
	}
	for _, env := range envs {
		if err := p.Deploy(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

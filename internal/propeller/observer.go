package propeller

import (
	"context"

	"github.com/shaiso/propeller/internal/domain"
)

// Observer получает события жизненного цикла runs.
//
// Вызывается синхронно из горутины Run/Deploy. Observer не влияет
// на выполнение: вернуть ошибку он не может, долгие операции
// (запись в БД, публикация) он обязан ограничивать сам.
type Observer interface {
	// RunStarted — run перешёл в RUNNING.
	RunStarted(ctx context.Context, run *domain.Run)

	// StageStarted — stage запущен.
	StageStarted(ctx context.Context, run *domain.Run, stage *domain.StageResult)

	// StageFinished — stage завершён (SUCCEEDED или FAILED).
	StageFinished(ctx context.Context, run *domain.Run, stage *domain.StageResult)

	// RunFinished — run завершён (SUCCEEDED или FAILED).
	RunFinished(ctx context.Context, run *domain.Run)
}

// NopObserver — Observer, который ничего не делает.
type NopObserver struct{}

func (NopObserver) RunStarted(context.Context, *domain.Run)                         {}
func (NopObserver) StageStarted(context.Context, *domain.Run, *domain.StageResult)  {}
func (NopObserver) StageFinished(context.Context, *domain.Run, *domain.StageResult) {}
func (NopObserver) RunFinished(context.Context, *domain.Run)                        {}

// multiObserver рассылает события нескольким observers по порядку.
type multiObserver []Observer

// Observers объединяет observers в один. nil пропускаются.
func Observers(observers ...Observer) Observer {
	var list multiObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NopObserver{}
	case 1:
		return list[0]
	}
	return list
}

func (m multiObserver) RunStarted(ctx context.Context, run *domain.Run) {
	for _, o := range m {
		o.RunStarted(ctx, run)
	}
}

func (m multiObserver) StageStarted(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	for _, o := range m {
		o.StageStarted(ctx, run, stage)
	}
}

func (m multiObserver) StageFinished(ctx context.Context, run *domain.Run, stage *domain.StageResult) {
	for _, o := range m {
		o.StageFinished(ctx, run, stage)
	}
}

func (m multiObserver) RunFinished(ctx context.Context, run *domain.Run) {
	for _, o := range m {
		o.RunFinished(ctx, run)
	}
}

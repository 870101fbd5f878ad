// Package propeller реализует планировщик задач и очередь deploy.
//
// # Фазы
//
// Run выполняет строки задач ("sass: src/*.scss > dist/css") строго
// последовательно. Deploy, запрошенный во время сборки, откладывается:
// все compilers завершаются раньше, чем начнётся первый deployer.
//
//	p := propeller.New(propeller.Config{Settings: cfg})
//	_ = p.Deploy(ctx, "prod")  // сборка не идёт: выполняется сразу
//
//	go p.Run(ctx)
//	_ = p.Deploy(ctx, "prod")  // сборка идёт: встаёт в очередь
//
// # Ошибки
//
//   - *engine.ConfigError — невалидная строка, неизвестный compiler,
//     окружение, deployer или отсутствует connection; stage не вызывался
//   - *StageError — stage вызван и вернул ошибку
//   - ErrRunInProgress — повторный Run во время работы
//
// Повторов нет: после ошибки run завершается со статусом FAILED.
//
// # Observer
//
// Каждый разбор очереди (сборка или deploy) — отдельный domain.Run.
// Observer получает RunStarted, StageStarted, StageFinished, RunFinished.
// Metrics, журнал в PostgreSQL и уведомления RabbitMQ подключаются как
// observers (см. Observers).
package propeller

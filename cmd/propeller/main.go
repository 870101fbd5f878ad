// Propeller — конвейер сборки и deploy статических ресурсов.
//
// Использование:
//
//	propeller [-c propeller.json] [-p] [--json] <command> [flags]
//
// Команды:
//
//	run       Выполнить очередь задач (и --deploy окружения)
//	deploy    Выполнить deploy окружений
//	check     Проверить конфигурацию
//	stages    Список compilers и deployers
//	watch     Пересобирать при изменении исходников
//	schedule  Запускать по cron
//	agent     Выполнять deploy-запросы из RabbitMQ
//	history   Журнал runs
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/propeller/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := cli.NewApp()
	rootCmd := cli.NewRootCmd(app, version)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		out := app.Out
		if out == nil {
			out = cli.NewOutput(false)
		}
		out.Error(err.Error())
		cancel()
		os.Exit(1)
	}
}

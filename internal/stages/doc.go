// Package stages содержит контракты stages и их стандартные реализации.
//
// # Обзор
//
// Stage бывает двух видов:
//   - Compiler — трансформация исходников (copy, concat, sass, bundle)
//   - Deployer — доставка результата в окружение (file, ftp, sftp)
//
// Оба интерфейса блокирующие: возврат из Compile/Deploy означает, что
// stage завершён. Ошибка — провал stage, повторов нет.
//
//	type Compiler interface {
//	    Type() string
//	    Compile(ctx context.Context, req *CompileRequest) error
//	}
//
//	type Deployer interface {
//	    Type() string
//	    Deploy(ctx context.Context, req *DeployRequest) error
//	}
//
// # Registry
//
//	registry := stages.DefaultRegistry()
//	registry.Register(myPlugin) // по возможностям: Compiler и/или Deployer
//	c, err := registry.Compiler("sass")
//
// Имена нечувствительны к регистру. Повторная регистрация перезаписывает.
//
// # Источники
//
// Sources — пути и glob-шаблоны (Expand). "!" в начале исключает файлы.
// Путь внутри Dest считается от базы шаблона:
//
//	copy: src/img/**/*.png > dist/img
//	    src/img/icons/a.png → dist/img/icons/a.png
//
// Ни один stage не считает ошибкой отсутствие подходящих файлов.
//
// # Deployers
//
// file копирует изменённые файлы в локальный каталог.
// ftp и sftp требуют connection (ConnectionRequirer) и загружают
// только файлы, которых нет на сервере или которые там старше.
//
// # Файлы пакета
//
//   - stage.go    — интерфейсы, запросы, ошибки, getters для connection
//   - registry.go — Registry
//   - match.go    — раскрытие шаблонов источников
//   - ignore.go   — фильтр .gitignore
//   - copy.go, concat.go, sass.go, bundle.go — compilers
//   - command.go  — запуск внешних команд
//   - file.go, ftp.go, sftp.go, remote.go — deployers
package stages

// Package watch перезапускает конвейер при изменении исходников.
//
// Каталоги наблюдения выводятся из шаблонов задач (stages.GlobBase)
// и отслеживаются рекурсивно через fsnotify. Серия событий
// схлопывается в один запуск после паузы Debounce.
package watch

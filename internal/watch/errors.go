package watch

import "errors"

// ErrNothingToWatch — ни один шаблон не указывает на существующий каталог.
var ErrNothingToWatch = errors.New("no source directories to watch")

// Package scheduler реализует ядро планирования доставки публикаций.
//
// Один проход (pass) выполняется строго в таком порядке:
//
//	lock → sweep → select → claim/dispatch → unlock
//
// Структура:
//   - scheduler.go — Run Coordinator: RunNow, busy-флаг, блокировка
//   - window.go    — чистое вычисление временного окна прохода
//   - sweeper.go   — просрочка SCHEDULED-публикаций и PENDING-постов
//   - dispatch.go  — атомарный claim + последовательный dispatch
//   - hooks.go     — best-effort хуки после переходов (уведомления)
//   - cron.go      — периодический запуск проходов по cron-выражению
//
// Горизонтальное масштабирование:
//
// Несколько экземпляров сервиса запускают проходы независимо.
// Пересечение проходов исключает распределённый замок с TTL;
// неудачный захват замка означает, что проход уже идёт в другом
// процессе, и текущий вызов просто пропускается. Внутри одного
// процесса повторный вход дополнительно отсекает локальный busy-флаг.
//
// Гонки на уровне отдельной публикации разрешает conditional update
// (claim): SCHEDULED → PROCESSING проходит ровно у одного процесса.
// Dispatch выполняется последовательно в порядке scheduled_at/created_at —
// это гарантия порядка доставки многосерийного контента; параллелить
// этот цикл нельзя.
package scheduler

package scheduler

import "time"

// Window — временное окно одного прохода планировщика.
//
// Все шаги прохода работают с одним и тем же Now, зафиксированным
// на входе в RunNow: системные часы внутри вложенных хелперов
// не читаются, иначе граничные случаи становятся невоспроизводимыми.
type Window struct {
	// Now — момент начала прохода. Публикация due при scheduled_at <= Now.
	Now time.Time

	// ExpiryCutoff = Now - lookback. Публикация просрочена
	// при scheduled_at строго < ExpiryCutoff.
	ExpiryCutoff time.Time
}

// ComputeWindow вычисляет окно прохода. Чистая функция.
//
// Cutoff строго в прошлом относительно Now (lookback > 0), поэтому
// множества "просрочить" (< cutoff) и "отправить" (<= now) не
// пересекаются по построению: одна публикация не может в одном проходе
// и просрочиться, и уйти в dispatch.
func ComputeWindow(now time.Time, lookback time.Duration) Window {
	return Window{
		Now:          now,
		ExpiryCutoff: now.Add(-lookback),
	}
}

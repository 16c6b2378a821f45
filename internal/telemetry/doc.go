// Package telemetry обеспечивает наблюдаемость планировщика.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики проходов и просрочки
//
// Сервис использует единый формат логирования
// и экспортирует метрики на /metrics endpoint.
package telemetry

// Package api содержит admin HTTP API сервера планировщика.
//
// Структура:
//   - handler.go             — Handler с DI (runner, репозитории, logger)
//   - routes.go              — регистрация маршрутов
//   - middleware.go          — middleware (logging, recovery)
//   - response.go            — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                 — Data Transfer Objects (request/response)
//   - pass_handler.go        — запуск прохода по требованию, health
//   - publication_handler.go — read-only доступ к публикациям и постам
//
// API — операторская поверхность: запуск прохода вне расписания
// и инспекция состояния. Создание и редактирование публикаций
// остаётся за авторской подсистемой.
package api

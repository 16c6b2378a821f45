// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - notifier.go   — публикация уведомлений и событий планировщика
//
// Типы сообщений:
//   - notification   — пользовательское уведомление (просрочка публикации)
//   - pass.completed — сводка завершённого прохода планировщика
//
// Exchanges:
//   - emissary.notifications — пользовательские уведомления
//   - emissary.events        — служебные события планировщика
package mq

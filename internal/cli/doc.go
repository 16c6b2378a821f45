// Package cli реализует инструмент командной строки Emissary.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Emissary API.
// Работает через HTTP, не импортирует внутренние пакеты сервера.
// CLI используется для запуска проходов планировщика и инспекции
// публикаций.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Emissary API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pass, err := client.TriggerPass()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: emissary pass run --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - pass: run
//   - publication: show, posts
//   - health
//
// Каждая группа создаётся через фабричную функцию (NewPassCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli

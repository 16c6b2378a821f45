package delivery

import "errors"

// Ошибки доставки.
var (
	// ErrDispatch — запрос к delivery backend не удался.
	ErrDispatch = errors.New("dispatch request failed")
)

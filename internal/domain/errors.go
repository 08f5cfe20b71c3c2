package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork — шлюз недоступен или ответил не 2xx.
	ErrNetwork = errors.New("network error")
	// ErrNotFound — сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrValidation — некорректные данные товара.
	ErrValidation = errors.New("validation error")
	// ErrStaleCache — мутация в бэкенде прошла, но кэш сбросить не удалось.
	ErrStaleCache = errors.New("cache invalidation failed")
)

// UserError — ошибка с сообщением для пользователя; исходная причина доступна через Unwrap.
type UserError struct {
	Op      string
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

// NewUserError — обернуть ошибку операции op в сообщение для пользователя.
func NewUserError(op string, err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return &UserError{Op: op, Message: UserMessage(op, err), Err: err}
}

// UserMessage — текст без деталей транспорта.
func UserMessage(op string, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Product not found."
	case errors.Is(err, ErrStaleCache):
		return "The product was saved, but cached data may be outdated. Reload the catalog."
	case errors.Is(err, ErrValidation):
		return fmt.Sprintf("Could not %s: the product data is invalid.", op)
	case errors.Is(err, ErrNetwork):
		return fmt.Sprintf("Could not %s: the server is unreachable, try again later.", op)
	default:
		return fmt.Sprintf("Could not %s, try again later.", op)
	}
}

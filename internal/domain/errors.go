package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEvent - кадр декодирован, но это не forceOrder
	ErrUnexpectedEvent = errors.New("event is not forceOrder")
	// ErrRetriesExhausted - превышено число попыток переподключения
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

// DecodeFault - битый кадр. Пропускаем, соединение не трогаем.
type DecodeFault struct {
	Frame string
	Err   error
}

func (f *DecodeFault) Error() string {
	return fmt.Sprintf("decode frame: %v", f.Err)
}

func (f *DecodeFault) Unwrap() error { return f.Err }

// TransportFault - соединение закрыто или упало
type TransportFault struct {
	Op  string // dial, read
	Err error
}

func (f *TransportFault) Error() string {
	return fmt.Sprintf("transport %s: %v", f.Op, f.Err)
}

func (f *TransportFault) Unwrap() error { return f.Err }

// DeliveryFault - уведомление не доставлено. Только логируем, без ретраев.
type DeliveryFault struct {
	Channel string
	Err     error
}

func (f *DeliveryFault) Error() string {
	return fmt.Sprintf("deliver to %s: %v", f.Channel, f.Err)
}

func (f *DeliveryFault) Unwrap() error { return f.Err }

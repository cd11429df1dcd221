//go:build !linux

package input

type Evdev struct {
	Path string
}

func FindKeyboard() (string, error) {
	return "", ErrUnsupported
}

func (s *Evdev) Listen(handler func(KeyEvent)) (func(), error) {
	return nil, ErrUnsupported
}

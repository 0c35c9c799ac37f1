package iocli

//go:generate moq -out io_mock.go . IO

// IO ввод и вывод CLI
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	Write(p []byte) (n int, err error)
	// IsTerminal сообщает, подключен ли вывод к терминалу
	IsTerminal() bool
}

package output

import "io"

// Option is a functional option for configuring Printer instances.
type Option func(*Printer)

// WithWriter configures the printer to write output to the specified writer.
// Default is os.Stdout if not specified.
func WithWriter(writer io.Writer) Option {
	return func(p *Printer) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// PlainText forces plain output regardless of the terminal's color profile.
func PlainText() Option {
	return func(p *Printer) {
		p.plain = true
	}
}

// WithPrefix adds a prefix to all output from this printer.
func WithPrefix(prefix string) Option {
	return func(p *Printer) {
		p.prefix = prefix
	}
}

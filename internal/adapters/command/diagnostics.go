package command

import (
	"fmt"
	"strings"
)

// Diagnostics accumulates the messages of one command. A fresh value is used
// for every line.
type Diagnostics struct {
	msgs []string
}

// Add records an error message.
func (d *Diagnostics) Add(err error) {
	if err != nil {
		d.msgs = append(d.msgs, err.Error())
	}
}

// Addf records a formatted message.
func (d *Diagnostics) Addf(format string, args ...any) {
	d.msgs = append(d.msgs, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) String() string {
	return strings.Join(d.msgs, "; ")
}

// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const promptText = "(dbg) "

// A line reader over standard input. On a terminal it switches to raw mode
// for the duration of a session and edits lines with x/term, otherwise it
// scans plain lines.
type prompt struct {
	fd          int
	interactive bool
	terminal    *term.Terminal
	scanner     *bufio.Scanner
	restore     *term.State
}

func newPrompt() *prompt {
	fd := int(os.Stdin.Fd())

	return &prompt{
		fd:          fd,
		interactive: term.IsTerminal(fd),
		scanner:     bufio.NewScanner(os.Stdin),
	}
}

func (p *prompt) enterRawTerm() error {
	if !p.interactive || p.restore != nil {
		return nil
	}

	state, err := term.MakeRaw(p.fd)

	if err != nil {
		return err
	}

	p.restore = state

	if p.terminal == nil {
		screen := struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}

		p.terminal = term.NewTerminal(screen, "\033[1;30m"+promptText+"\033[0m")
	}

	return nil
}

func (p *prompt) exitRawTerm() {
	if p.restore == nil {
		return
	}

	if err := term.Restore(p.fd, p.restore); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	p.restore = nil
}

// Output for the current session. Raw mode needs the terminal to translate
// newlines.
func (p *prompt) out() io.Writer {
	if p.restore != nil {
		return p.terminal
	}

	return os.Stdout
}

func (p *prompt) readLine() (string, error) {
	if p.restore != nil {
		return p.terminal.ReadLine()
	}

	fmt.Print(promptText)

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return p.scanner.Text(), nil
}

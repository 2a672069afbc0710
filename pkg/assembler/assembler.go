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

// Package assembler implements a two-pass assembler for a 16-bit machine
// with seven instructions (LDR, STR, LDA, LDX, STX, JZ, HLT) and two
// directives (LOC, Data).
//
// Every instruction word has the layout
//
//	|opcode(6)|R(2)|IX(2)|I(1)|address(5)|
//
// and is rendered as six octal digits in the listing and load files.
package assembler

import (
	"bufio"
	"io"
	"strings"
)

// ReadSource splits input into lines, dropping line terminators.
func ReadSource(input io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Assemble runs both passes over lines.
func Assemble(lines []string, opts Options) *Program {
	labels := FirstPass(lines, opts)
	image, listing, errs := SecondPass(lines, labels, opts)

	return &Program{
		Labels:  labels,
		Image:   image,
		Listing: listing,
		Errors:  errs,
	}
}

// AssembleSource reads and assembles a source file. The returned error only
// reports read failures; assembly errors are in Program.Errors.
func AssembleSource(input io.Reader, opts Options) (*Program, error) {
	lines, err := ReadSource(input)

	if err != nil {
		return nil, err
	}

	return Assemble(lines, opts), nil
}

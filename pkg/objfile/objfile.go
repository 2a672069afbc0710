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

// Package objfile reads and writes the files produced by the assembler: the
// load file ("%06o %06o" address/word pairs), the listing, and the gob
// encoded symbol table used for debugging.
package objfile

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/go6461/pkg/assembler"
	"github.com/lassandro/go6461/pkg/encoding"
)

type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("%02d: %s: %q", err.Line, err.Reason, err.Text)
}

// WriteLoad writes one line per word in ascending address order.
func WriteLoad(w io.Writer, image assembler.LoadImage) error {
	bw := bufio.NewWriter(w)

	for _, addr := range image.Addresses() {
		if _, err := fmt.Fprintf(bw, "%06o %s\n", addr, image[addr]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteListing writes every listing row on its own line.
func WriteListing(w io.Writer, listing assembler.Listing) error {
	bw := bufio.NewWriter(w)

	for _, line := range listing {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadLoad parses a load file. Blank lines are skipped.
func ReadLoad(r io.Reader) (assembler.LoadImage, error) {
	image := make(assembler.LoadImage)
	scanner := bufio.NewScanner(r)
	lineno := 0

	for scanner.Scan() {
		lineno++

		text := strings.TrimSpace(scanner.Text())

		if text == "" {
			continue
		}

		fields := strings.Fields(text)

		if len(fields) != 2 {
			return nil, &ParseError{lineno, text, "Expected address and word"}
		}

		addr, err := encoding.ParseOctal(fields[0])

		if err != nil {
			return nil, &ParseError{lineno, text, "Invalid address"}
		}

		word, err := encoding.ParseOctal(fields[1])

		if err != nil {
			return nil, &ParseError{lineno, text, "Invalid word"}
		}

		image[int(addr)] = assembler.Word(word)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return image, nil
}

func WriteSymbols(w io.Writer, symtable *assembler.SymTable) error {
	return gob.NewEncoder(w).Encode(symtable)
}

func ReadSymbols(r io.Reader) (*assembler.SymTable, error) {
	var symtable assembler.SymTable

	if err := gob.NewDecoder(r).Decode(&symtable); err != nil {
		return nil, err
	}

	return &symtable, nil
}

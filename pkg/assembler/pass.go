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

package assembler

import (
	"strings"
	"unicode"

	"github.com/golang/glog"
)

// A comment-stripped source line broken into its parts
type statement struct {
	Label    string
	HasLabel bool
	Body     string // everything after the label
	Keyword  string
	Operands string
	Column   int // column of Keyword, or of Label for label-only lines
}

// Per-pass position, handed from one line to the next
type passState struct {
	Program int
	Line    int
}

func (state passState) cursor(column int) Cursor {
	return Cursor{Line: state.Line, Column: column}
}

func cutToken(s string) (token, rest string, skip int) {
	i := strings.IndexFunc(s, unicode.IsSpace)

	if i < 0 {
		return s, "", len(s)
	}

	rest = strings.TrimLeftFunc(s[i:], unicode.IsSpace)

	return s[:i], rest, len(s) - len(rest)
}

func parseStatement(raw string) (stmt statement, ok bool) {
	code, _, _ := strings.Cut(raw, ";")
	code = strings.TrimRightFunc(code, unicode.IsSpace)

	trimmed := strings.TrimLeftFunc(code, unicode.IsSpace)
	column := len(code) - len(trimmed) + 1

	if trimmed == "" {
		return stmt, false
	}

	head, rest, skip := cutToken(trimmed)

	if len(head) > 1 && strings.HasSuffix(head, ":") {
		stmt.Label = head[:len(head)-1]
		stmt.HasLabel = true
		stmt.Body = rest
		stmt.Column = column

		if rest == "" {
			return stmt, true
		}

		column += skip
		head, rest, _ = cutToken(rest)
	} else {
		stmt.Body = trimmed
	}

	stmt.Keyword = head
	stmt.Operands = rest
	stmt.Column = column

	return stmt, true
}

// Reads the operand of a LOC directive. Only numeric literals are accepted.
func parseLocation(pos Cursor, operands string) (int, error) {
	fields := strings.Fields(operands)

	if count := len(fields); count == 0 {
		return 0, &MissingOperandError{pos, DIRECTIVE_LOC, 1, count}
	} else if count > 1 {
		return 0, &ExtraOperandError{pos, DIRECTIVE_LOC, 1, count}
	}

	addr, err := ResolveNumber(fields[0])

	if err != nil || addr < 0 || addr > MaxAddress {
		return 0, &InvalidLocationError{pos, fields[0]}
	}

	return addr, nil
}

// FirstPass assigns an address to every label. It follows the same counting
// rules as the second pass, so a label always names the address its
// statement is assembled at.
func FirstPass(lines []string, opts Options) *LabelTable {
	glog.V(1).Infof("Beginning pass 1 (%d lines)", len(lines))

	labels := newLabelTable()
	state := passState{}

	for i, raw := range lines {
		state.Line = i + 1
		state = firstPassLine(state, raw, labels, opts)
	}

	glog.V(1).Infof("Pass 1 found %d labels", labels.Len())

	return labels
}

func firstPassLine(state passState, raw string, labels *LabelTable, opts Options) passState {
	stmt, ok := parseStatement(raw)

	if !ok {
		return state
	}

	if stmt.HasLabel {
		if labels.declare(stmt.Label, state.Program) {
			glog.V(2).Infof("%d: label %q at %06o", state.Line, stmt.Label, state.Program)
		}

		if stmt.Keyword == "" || opts.LegacyLabels {
			return state
		}
	}

	if stmt.Keyword == DIRECTIVE_LOC {
		if addr, err := parseLocation(state.cursor(stmt.Column), stmt.Operands); err == nil {
			state.Program = addr
		}

		return state
	}

	// Unknown mnemonics still take up a word
	state.Program++

	return state
}

type secondPass struct {
	labels  *LabelTable
	opts    Options
	image   LoadImage
	listing Listing
	errs    []error
	seen    map[string]bool
}

// SecondPass assembles every line against a finished label table. Failing
// lines are annotated in the listing and reported in the returned errors;
// they never stop the pass.
func SecondPass(lines []string, labels *LabelTable, opts Options) (LoadImage, Listing, []error) {
	glog.V(1).Infof("Beginning pass 2 (%d lines)", len(lines))

	pass := secondPass{
		labels:  labels,
		opts:    opts,
		image:   make(LoadImage),
		listing: make(Listing, 0, len(lines)),
		errs:    make([]error, 0),
		seen:    make(map[string]bool),
	}

	state := passState{}

	for i, raw := range lines {
		state.Line = i + 1
		state = pass.line(state, raw)
	}

	glog.V(1).Infof(
		"Pass 2 emitted %d words with %d errors", len(pass.image), len(pass.errs),
	)

	return pass.image, pass.listing, pass.errs
}

func (pass *secondPass) line(state passState, raw string) passState {
	stmt, ok := parseStatement(raw)

	if !ok {
		pass.listing = append(pass.listing, ListingLine{Kind: LISTING_BLANK, Source: raw})
		return state
	}

	var labelErr error

	if stmt.HasLabel {
		if pass.seen[stmt.Label] {
			labelErr = &RedeclaredLabelError{state.cursor(stmt.Column), stmt.Label}
			pass.errs = append(pass.errs, labelErr)
		}

		pass.seen[stmt.Label] = true

		if stmt.Keyword == "" {
			pass.listing = append(pass.listing, ListingLine{
				Kind: LISTING_LABEL, Source: raw, Err: labelErr,
			})

			return state
		}

		if pass.opts.LegacyLabels {
			if stmt.Body == "HLT" {
				return pass.emit(state, raw, Word(OPCODE_HLT), labelErr)
			}

			glog.Warningf(
				"%d: statement after label %q ignored: %s",
				state.Line, stmt.Label, stmt.Body,
			)

			pass.listing = append(pass.listing, ListingLine{
				Kind: LISTING_LABEL, Source: raw, Err: labelErr,
			})

			return state
		}
	}

	pos := state.cursor(stmt.Column)

	switch stmt.Keyword {
	case DIRECTIVE_LOC:
		addr, err := parseLocation(pos, stmt.Operands)

		if err != nil {
			pass.errs = append(pass.errs, err)
		} else {
			state.Program = addr
			err = labelErr
		}

		pass.listing = append(pass.listing, ListingLine{
			Kind: LISTING_LOCATION, Source: raw, Err: err,
		})

		return state

	case DIRECTIVE_DATA:
		value, err := pass.data(pos, stmt.Operands)

		if err != nil {
			return pass.fail(state, raw, err)
		}

		return pass.emit(state, raw, value, labelErr)
	}

	word, err := EncodeInstruction(
		pos, stmt.Keyword, splitOperands(stmt.Operands), pass.labels,
	)

	if err != nil {
		return pass.fail(state, raw, err)
	}

	return pass.emit(state, raw, word, labelErr)
}

func (pass *secondPass) data(pos Cursor, operands string) (Word, error) {
	fields := strings.Fields(operands)

	if count := len(fields); count == 0 {
		return 0, &MissingOperandError{pos, DIRECTIVE_DATA, 1, count}
	} else if count > 1 {
		return 0, &ExtraOperandError{pos, DIRECTIVE_DATA, 1, count}
	}

	value, err := Resolve(pos, fields[0], pass.labels)

	if err != nil {
		return 0, err
	}

	if value < MinData || value > MaxData {
		return 0, &OperandRangeError{pos, FIELD_DATA, MinData, MaxData, value}
	}

	return Word(uint16(value & 0xFFFF)), nil
}

// Places word at the current address and moves past it. err, if set, is an
// annotation that does not prevent the word from being assembled.
func (pass *secondPass) emit(state passState, raw string, word Word, err error) passState {
	if state.Program > MaxAddress {
		return pass.fail(state, raw, &AddressOverflowError{state.cursor(1), state.Program})
	}

	if previous, exists := pass.image[state.Program]; exists {
		glog.Warningf(
			"%d: address %06o overwritten (was %s, now %s)",
			state.Line, state.Program, previous, word,
		)
	}

	glog.V(2).Infof("%d: %06o %s", state.Line, state.Program, word)

	pass.image[state.Program] = word
	pass.listing = append(pass.listing, ListingLine{
		Kind:    LISTING_WORD,
		Address: state.Program,
		Word:    word,
		Source:  raw,
		Err:     err,
	})

	state.Program++

	return state
}

// Records a line that could not be assembled. The address is still consumed.
func (pass *secondPass) fail(state passState, raw string, err error) passState {
	glog.V(1).Infof("%v", err)

	pass.errs = append(pass.errs, err)
	pass.listing = append(pass.listing, ListingLine{
		Kind:    LISTING_ERROR,
		Address: state.Program,
		Source:  raw,
		Err:     err,
	})

	state.Program++

	return state
}

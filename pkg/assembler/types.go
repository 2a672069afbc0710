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
	"fmt"
	"sort"
	"strings"

	"github.com/lassandro/go6461/pkg/encoding"
)

type Mnemonic uint
type Field uint
type ListingKind uint

type Cursor struct {
	Line   int
	Column int
}

// A single machine word, rendered as 6 octal digits
type Word uint16

func (w Word) String() string {
	return encoding.FormatOctal(uint16(w))
}

// LabelTable maps label names to addresses. It is only written while the
// first pass runs; everything afterwards goes through the read-only methods.
type LabelTable struct {
	labels map[string]int
	order  []string
}

func newLabelTable() *LabelTable {
	return &LabelTable{labels: make(map[string]int)}
}

// Records name at addr unless it already exists. The first declaration wins,
// unlike the historical assembler where a later declaration replaced it.
func (t *LabelTable) declare(name string, addr int) bool {
	if _, exists := t.labels[name]; exists {
		return false
	}

	t.labels[name] = addr
	t.order = append(t.order, name)

	return true
}

func (t *LabelTable) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}

	addr, exists := t.labels[name]
	return addr, exists
}

func (t *LabelTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.labels)
}

// Names returns the labels in declaration order.
func (t *LabelTable) Names() []string {
	if t == nil {
		return nil
	}

	return append([]string(nil), t.order...)
}

// Map returns a copy of the table.
func (t *LabelTable) Map() map[string]int {
	result := make(map[string]int, t.Len())

	if t != nil {
		for name, addr := range t.labels {
			result[name] = addr
		}
	}

	return result
}

// LoadImage maps addresses to the words assembled at them.
type LoadImage map[int]Word

// Addresses returns every populated address in ascending order.
func (img LoadImage) Addresses() []int {
	addrs := make([]int, 0, len(img))

	for addr := range img {
		addrs = append(addrs, addr)
	}

	sort.Ints(addrs)
	return addrs
}

type ListingLine struct {
	Kind    ListingKind
	Address int
	Word    Word
	Source  string
	Err     error
}

func (l ListingLine) String() string {
	var result string

	switch l.Kind {
	case LISTING_LOCATION:
		result = strings.Repeat(" ", 14) + l.Source
	case LISTING_LABEL:
		result = strings.Repeat(" ", 6) + l.Source
	case LISTING_WORD:
		result = fmt.Sprintf("%06o %s %s", l.Address, l.Word, l.Source)
	case LISTING_ERROR:
		result = fmt.Sprintf("%06o %s %s", l.Address, strings.Repeat(" ", 6), l.Source)
	default:
		return l.Source
	}

	if l.Err != nil {
		result += " ; ERROR: " + Reason(l.Err)
	}

	return result
}

// Listing holds one row per source line, in source order.
type Listing []ListingLine

// Lines renders every row.
func (l Listing) Lines() []string {
	result := make([]string, 0, len(l))

	for _, line := range l {
		result = append(result, line.String())
	}

	return result
}

type Options struct {
	// Reproduce the historical label rule: a label line never advances the
	// program counter in the first pass, and the second pass only assembles
	// HLT after a label.
	LegacyLabels bool
}

type Program struct {
	Labels  *LabelTable
	Image   LoadImage
	Listing Listing
	Errors  []error
}

// SymTable is the debugging information written next to a load file.
type SymTable struct {
	Source string
	Lines  map[uint16]string
	Labels map[uint16]string
}

func NewSymTable(source string, program *Program) *SymTable {
	symtable := &SymTable{
		Source: source,
		Lines:  make(map[uint16]string),
		Labels: make(map[uint16]string),
	}

	for _, line := range program.Listing {
		if line.Kind == LISTING_WORD {
			symtable.Lines[uint16(line.Address)] = strings.TrimSpace(line.Source)
		}
	}

	for _, name := range program.Labels.Names() {
		addr, _ := program.Labels.Lookup(name)

		if addr > MaxAddress {
			continue
		}

		if _, exists := symtable.Labels[uint16(addr)]; !exists {
			symtable.Labels[uint16(addr)] = name
		}
	}

	return symtable
}

func (f Field) String() string {
	switch f {
	case FIELD_REGISTER:
		return "Register"
	case FIELD_INDEX:
		return "Index register"
	case FIELD_ADDRESS:
		return "Address"
	case FIELD_DATA:
		return "Data value"
	}

	return "<invalid>"
}

type TokenError interface {
	GetPosition() Cursor
}

// Reason returns the one-line annotation used in the listing.
func Reason(err error) string {
	if reasoner, ok := err.(interface{ Reason() string }); ok {
		return reasoner.Reason()
	}

	return err.Error()
}

type MissingOperandError struct {
	Position Cursor
	Keyword  string
	Required int
	Received int
}

func (err *MissingOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *MissingOperandError) Reason() string {
	if err.Keyword == DIRECTIVE_DATA {
		return "Missing value"
	}

	return fmt.Sprintf(
		"Missing operand, %s takes %d, have %d",
		err.Keyword,
		err.Required,
		err.Received,
	)
}

func (err *MissingOperandError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Missing operand for %s\n\twant:%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Keyword,
		err.Required,
		err.Received,
	)
}

type ExtraOperandError struct {
	Position Cursor
	Keyword  string
	Allowed  int
	Received int
}

func (err *ExtraOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *ExtraOperandError) Reason() string {
	return fmt.Sprintf(
		"Too many operands, %s takes at most %d, have %d",
		err.Keyword,
		err.Allowed,
		err.Received,
	)
}

func (err *ExtraOperandError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Too many operands for %s\n\twant:%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Keyword,
		err.Allowed,
		err.Received,
	)
}

type UnresolvedOperandError struct {
	Position Cursor
	Received string
	Label    bool
}

func (err *UnresolvedOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *UnresolvedOperandError) Reason() string {
	if err.Label {
		return fmt.Sprintf("Undefined label '%s'", err.Received)
	}

	return fmt.Sprintf("Invalid value '%s'", err.Received)
}

func (err *UnresolvedOperandError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line,
		err.Position.Column,
		err.Reason(),
	)
}

type OperandRangeError struct {
	Position Cursor
	Field    Field
	Min      int
	Max      int
	Received int
}

func (err *OperandRangeError) GetPosition() Cursor {
	return err.Position
}

func (err *OperandRangeError) Reason() string {
	return fmt.Sprintf(
		"%s %d out of range %d..%d",
		err.Field,
		err.Received,
		err.Min,
		err.Max,
	)
}

func (err *OperandRangeError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s out of range\n\twant:%d..%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Field,
		err.Min,
		err.Max,
		err.Received,
	)
}

type UnknownMnemonicError struct {
	Position Cursor
	Received string
}

func (err *UnknownMnemonicError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownMnemonicError) Reason() string {
	return fmt.Sprintf("Invalid instruction '%s'", err.Received)
}

func (err *UnknownMnemonicError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown instruction '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type InvalidLocationError struct {
	Position Cursor
	Received string
}

func (err *InvalidLocationError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidLocationError) Reason() string {
	return fmt.Sprintf("Invalid location '%s'", err.Received)
}

func (err *InvalidLocationError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid location '%s'\n\twant:0..%d",
		err.Position.Line,
		err.Position.Column,
		err.Received,
		MaxAddress,
	)
}

type RedeclaredLabelError struct {
	Position Cursor
	Received string
}

func (err *RedeclaredLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredLabelError) Reason() string {
	return fmt.Sprintf("Redeclaration of label '%s'", err.Received)
}

func (err *RedeclaredLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: %s",
		err.Position.Line,
		err.Position.Column,
		err.Reason(),
	)
}

type AddressOverflowError struct {
	Position Cursor
	Received int
}

func (err *AddressOverflowError) GetPosition() Cursor {
	return err.Position
}

func (err *AddressOverflowError) Reason() string {
	return "Address exceeds memory"
}

func (err *AddressOverflowError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Address exceeds memory\n\twant:%#o\n\thave:%#o",
		err.Position.Line,
		err.Position.Column,
		MaxAddress,
		err.Received,
	)
}

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

const (
	MNEMONIC_INVALID Mnemonic = iota
	MNEMONIC_LDR
	MNEMONIC_STR
	MNEMONIC_LDA
	MNEMONIC_LDX
	MNEMONIC_STX
	MNEMONIC_JZ
	MNEMONIC_HLT
)

const (
	OPCODE_HLT uint16 = 0b000000
	OPCODE_LDR        = 0b000001
	OPCODE_STR        = 0b000010
	OPCODE_LDA        = 0b000011
	OPCODE_JZ         = 0b001000
	OPCODE_STX        = 0b010010
	OPCODE_LDX        = 0b100001
)

// Instruction field widths, most significant first
const (
	BITS_OPCODE   = 6
	BITS_REGISTER = 2
	BITS_INDEX    = 2
	BITS_INDIRECT = 1
	BITS_ADDRESS  = 5
)

const (
	DIRECTIVE_LOC  = "LOC"
	DIRECTIVE_DATA = "Data"
)

const (
	// Highest address a word can be emitted at
	MaxAddress = 0xFFFF

	// Range accepted by the Data directive before truncation to a word
	MinData = -(1 << 15)
	MaxData = (1 << 16) - 1
)

const (
	FIELD_REGISTER Field = iota
	FIELD_INDEX
	FIELD_ADDRESS
	FIELD_DATA
)

const (
	LISTING_BLANK ListingKind = iota
	LISTING_LOCATION
	LISTING_LABEL
	LISTING_WORD
	LISTING_ERROR
)

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

	"github.com/golang/glog"

	"github.com/lassandro/go6461/pkg/encoding"
)

func parseMnemonic(ident string) Mnemonic {
	switch ident {
	case "LDR":
		return MNEMONIC_LDR
	case "STR":
		return MNEMONIC_STR
	case "LDA":
		return MNEMONIC_LDA
	case "LDX":
		return MNEMONIC_LDX
	case "STX":
		return MNEMONIC_STX
	case "JZ":
		return MNEMONIC_JZ
	case "HLT":
		return MNEMONIC_HLT
	}

	return MNEMONIC_INVALID
}

// Splits a comma separated operand list, trimming each operand. Trailing
// empty operands are dropped so "LDR 0,0,3," is not read as indirect.
func splitOperands(s string) []string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}

	operands := strings.Split(s, ",")

	for i := range operands {
		operands[i] = strings.TrimSpace(operands[i])
	}

	for len(operands) > 0 && operands[len(operands)-1] == "" {
		operands = operands[:len(operands)-1]
	}

	return operands
}

func checkArity(pos Cursor, ident string, operands []string, min, max int) error {
	if count := len(operands); count < min {
		return &MissingOperandError{pos, ident, min, count}
	} else if count > max {
		return &ExtraOperandError{pos, ident, max, count}
	}

	return nil
}

func parseField(pos Cursor, token string, field Field, min, max int) (uint16, error) {
	value, err := encoding.DecodeInt(token)

	if err != nil {
		return 0, &UnresolvedOperandError{pos, token, false}
	}

	if value < min || value > max {
		return 0, &OperandRangeError{pos, field, min, max, value}
	}

	return uint16(value), nil
}

func parseAddress(pos Cursor, token string, labels *LabelTable) (uint16, error) {
	const limit = 1 << BITS_ADDRESS

	value, err := Resolve(pos, token, labels)

	if err != nil {
		return 0, err
	}

	if value < 0 {
		return 0, &OperandRangeError{pos, FIELD_ADDRESS, 0, limit - 1, value}
	}

	if value >= limit {
		glog.Warningf(
			"%d: address %d does not fit in %d bits, truncated to %d",
			pos.Line, value, BITS_ADDRESS, encoding.Mask(value, BITS_ADDRESS),
		)
	}

	return encoding.Mask(value, BITS_ADDRESS), nil
}

func pack(opcode, reg, index uint16, indirect bool, addr uint16) Word {
	scratch := opcode

	scratch <<= BITS_REGISTER
	scratch |= (reg & 0x3)

	scratch <<= BITS_INDEX
	scratch |= (index & 0x3)

	scratch <<= BITS_INDIRECT
	if indirect {
		scratch |= 0x1
	}

	scratch <<= BITS_ADDRESS
	scratch |= (addr & 0x1F)

	return Word(scratch)
}

// EncodeInstruction assembles a single mnemonic and its operands. Any
// invalid operand rejects the whole instruction.
func EncodeInstruction(pos Cursor, ident string, operands []string, labels *LabelTable) (Word, error) {
	var result Word

	switch mnemonic := parseMnemonic(ident); mnemonic {
	// LDR  |000001  |R  |IX |I|Address   | Load register from memory
	// LDA  |000011  |R  |IX |I|Address   | Load register with address
	// JZ   |001000  |R  |IX |I|Address   | Jump if register is zero
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case MNEMONIC_LDR, MNEMONIC_LDA, MNEMONIC_JZ:
		if err := checkArity(pos, ident, operands, 3, 4); err != nil {
			return 0, err
		}

		reg, err := parseField(pos, operands[0], FIELD_REGISTER, 0, 3)

		if err != nil {
			return 0, err
		}

		index, err := parseField(pos, operands[1], FIELD_INDEX, 0, 3)

		if err != nil {
			return 0, err
		}

		addr, err := parseAddress(pos, operands[2], labels)

		if err != nil {
			return 0, err
		}

		var opcode uint16
		switch mnemonic {
		case MNEMONIC_LDR:
			opcode = OPCODE_LDR
		case MNEMONIC_LDA:
			opcode = OPCODE_LDA
		case MNEMONIC_JZ:
			opcode = OPCODE_JZ
		}

		result = pack(opcode, reg, index, len(operands) == 4, addr)

	// STR  |000010  |R  |IX |I|Address   | Store register to memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case MNEMONIC_STR:
		if err := checkArity(pos, ident, operands, 2, 4); err != nil {
			return 0, err
		}

		reg, err := parseField(pos, operands[0], FIELD_REGISTER, 0, 3)

		if err != nil {
			return 0, err
		}

		// STR r,addr leaves the index field clear
		var index uint16
		addrToken := operands[1]

		if len(operands) > 2 {
			if index, err = parseField(
				pos, operands[1], FIELD_INDEX, 0, 3,
			); err != nil {
				return 0, err
			}

			addrToken = operands[2]
		}

		addr, err := parseAddress(pos, addrToken, labels)

		if err != nil {
			return 0, err
		}

		result = pack(OPCODE_STR, reg, index, len(operands) == 4, addr)

	// LDX  |100001  |00 |IX |I|Address   | Load index register from memory
	// STX  |010010  |00 |IX |I|Address   | Store index register to memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case MNEMONIC_LDX, MNEMONIC_STX:
		if err := checkArity(pos, ident, operands, 2, 3); err != nil {
			return 0, err
		}

		index, err := parseField(pos, operands[0], FIELD_INDEX, 1, 3)

		if err != nil {
			return 0, err
		}

		addr, err := parseAddress(pos, operands[1], labels)

		if err != nil {
			return 0, err
		}

		opcode := uint16(OPCODE_LDX)
		if mnemonic == MNEMONIC_STX {
			opcode = OPCODE_STX
		}

		result = pack(opcode, 0, index, len(operands) == 3, addr)

	// HLT  |000000  |0000000000          | Halt
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case MNEMONIC_HLT:
		if err := checkArity(pos, ident, operands, 0, 0); err != nil {
			return 0, err
		}

		result = Word(OPCODE_HLT)

	default:
		return 0, &UnknownMnemonicError{pos, ident}
	}

	glog.V(2).Infof(
		"%d: %s -> %s (%s)",
		pos.Line, ident, encoding.ToBinary(int(result), encoding.WordBits), result,
	)

	return result, nil
}

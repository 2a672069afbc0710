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
	"errors"
	"strings"

	"github.com/golang/glog"

	"github.com/lassandro/go6461/pkg/encoding"
)

var errNotNumeric = errors.New("Not a numeric literal")

// Decodes a numeric literal, trying in order: decimal (123, -123),
// hexadecimal (0x7B) and octal (0173, 0o173). Leading-zero tokens made only
// of digits are decimal.
func ResolveNumber(token string) (int, error) {
	switch {
	case encoding.IsDecimal(token):
		return encoding.DecodeInt(token)
	case len(token) >= 2 && strings.EqualFold(token[:2], "0x"):
		return encoding.DecodeHex(token)
	case strings.HasPrefix(token, "0"):
		return encoding.DecodeOctal(token)
	}

	return 0, errNotNumeric
}

// Resolves an operand to its value: a numeric literal per ResolveNumber, or
// else the address of a label. A token in numeric form is never looked up as
// a label.
func Resolve(pos Cursor, token string, labels *LabelTable) (int, error) {
	value, err := ResolveNumber(token)

	if err == nil {
		return value, nil
	} else if err != errNotNumeric {
		glog.V(2).Infof("%d: invalid numeric operand %q: %v", pos.Line, token, err)
		return 0, &UnresolvedOperandError{pos, token, false}
	}

	if addr, exists := labels.Lookup(token); exists {
		glog.V(2).Infof("%d: label %q resolved to %06o", pos.Line, token, addr)
		return addr, nil
	}

	return 0, &UnresolvedOperandError{pos, token, token != ""}
}

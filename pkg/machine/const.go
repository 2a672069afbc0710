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

package machine

const MEMORY_SIZE = 1 << 16

const (
	OP_HLT uint16 = 0b000000
	OP_LDR uint16 = 0b000001
	OP_STR uint16 = 0b000010
	OP_LDA uint16 = 0b000011
	OP_JZ  uint16 = 0b001000
	OP_STX uint16 = 0b010010
	OP_LDX uint16 = 0b100001
)

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

import (
	"errors"
	"fmt"
)

var ErrHalted = errors.New("Machine is halted")

type MachineState struct {
	Registers   [4]uint16
	Index       [4]uint16 // Index[0] is unused
	Program     uint16
	Instruction uint16
	Halted      bool
	Memory      [MEMORY_SIZE]uint16
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
}

// An instruction word split into its fields
type Instruction struct {
	Opcode   uint16
	Register uint16
	Index    uint16
	Indirect bool
	Address  uint16
}

type IllegalOpcodeError struct {
	Address     uint16
	Instruction uint16
}

func (err *IllegalOpcodeError) Error() string {
	return fmt.Sprintf(
		"%06o: Illegal opcode\n\thave:%02o (%06o)",
		err.Address,
		err.Instruction>>10,
		err.Instruction,
	)
}

type StepLimitError struct {
	Limit int
}

func (err *StepLimitError) Error() string {
	return fmt.Sprintf("Step limit reached\n\twant:<halt>\n\thave:%d steps", err.Limit)
}

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
	"fmt"

	"github.com/golang/glog"

	"github.com/lassandro/go6461/pkg/assembler"
	"github.com/lassandro/go6461/pkg/encoding"
)

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0
	}

	for i := range mc.Index {
		mc.Index[i] = 0
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0
	}

	mc.Program = 0
	mc.Instruction = 0
	mc.Halted = false
}

// Load resets the machine, copies image into memory and points the program
// counter at the lowest loaded address.
func (mc *Machine) Load(image assembler.LoadImage) error {
	mc.State.Reset()

	addrs := image.Addresses()

	for _, addr := range addrs {
		if addr < 0 || addr >= MEMORY_SIZE {
			return fmt.Errorf("address %o outside memory", addr)
		}

		mc.State.Memory[addr] = uint16(image[addr])
	}

	if len(addrs) > 0 {
		mc.State.Program = uint16(addrs[0])
	}

	glog.V(1).Infof("Loaded %d words", len(addrs))

	return nil
}

// Decode splits a word into |opcode(6)|R(2)|IX(2)|I(1)|address(5)|
func Decode(word uint16) Instruction {
	return Instruction{
		Opcode:   word >> 10,
		Register: (word >> 8) & 0x3,
		Index:    (word >> 6) & 0x3,
		Indirect: (word>>5)&0x1 == 1,
		Address:  word & 0x1F,
	}
}

func (inst Instruction) String() string {
	var name string

	switch inst.Opcode {
	case OP_HLT:
		return "HLT"
	case OP_LDR:
		name = "LDR"
	case OP_STR:
		name = "STR"
	case OP_LDA:
		name = "LDA"
	case OP_JZ:
		name = "JZ"
	case OP_LDX:
		name = "LDX"
	case OP_STX:
		name = "STX"
	default:
		return fmt.Sprintf("??? (%s)", encoding.ToBinary(int(inst.Opcode), 6))
	}

	var operands string

	if inst.Opcode == OP_LDX || inst.Opcode == OP_STX {
		operands = fmt.Sprintf("%d,%d", inst.Index, inst.Address)
	} else {
		operands = fmt.Sprintf("%d,%d,%d", inst.Register, inst.Index, inst.Address)
	}

	if inst.Indirect {
		operands += ",I"
	}

	return name + " " + operands
}

func (mc *Machine) read(addr uint16) uint16 {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// LDX and STX name their target with the index field, so they never index
func (mc *Machine) effectiveAddress(inst Instruction, indexed bool) uint16 {
	addr := inst.Address

	if indexed && inst.Index != 0 {
		addr += mc.State.Index[inst.Index]
	}

	if inst.Indirect {
		addr = mc.read(addr)
	}

	return addr
}

func (mc *Machine) Step() error {
	if mc.State.Halted {
		return ErrHalted
	}

	program := mc.State.Program
	instruction := mc.read(program)
	inst := Decode(instruction)

	mc.State.Instruction = instruction
	mc.State.Program++

	glog.V(2).Infof("%06o: %06o %s", program, instruction, inst)

	switch inst.Opcode {
	// HLT  |000000  |0000000000          | Halt
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_HLT:
		mc.State.Halted = true

	// LDR  |000001  |R  |IX |I|Address   | Load register from memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		addr := mc.effectiveAddress(inst, true)
		mc.State.Registers[inst.Register] = mc.read(addr)

	// STR  |000010  |R  |IX |I|Address   | Store register to memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		addr := mc.effectiveAddress(inst, true)
		mc.write(addr, mc.State.Registers[inst.Register])

	// LDA  |000011  |R  |IX |I|Address   | Load register with address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDA:
		mc.State.Registers[inst.Register] = mc.effectiveAddress(inst, true)

	// JZ   |001000  |R  |IX |I|Address   | Jump if register is zero
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JZ:
		if mc.State.Registers[inst.Register] == 0 {
			mc.State.Program = mc.effectiveAddress(inst, true)
		}

	// LDX  |100001  |00 |IX |I|Address   | Load index register from memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDX:
		addr := mc.effectiveAddress(inst, false)
		if inst.Index != 0 {
			mc.State.Index[inst.Index] = mc.read(addr)
		}

	// STX  |010010  |00 |IX |I|Address   | Store index register to memory
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STX:
		addr := mc.effectiveAddress(inst, false)
		mc.write(addr, mc.State.Index[inst.Index])

	default:
		mc.State.Halted = true
		return &IllegalOpcodeError{program, instruction}
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

// Run steps until the machine halts. A positive limit bounds the number of
// instructions executed.
func (mc *Machine) Run(limit int) error {
	for steps := 0; !mc.State.Halted; steps++ {
		if limit > 0 && steps >= limit {
			return &StepLimitError{limit}
		}

		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

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

package debugger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/lassandro/go6461/pkg/encoding"
	"github.com/lassandro/go6461/pkg/machine"
)

var ErrNoBreakpoint = errors.New("Invalid breakpoint number")
var ErrNoWatchpoint = errors.New("Invalid watchpoint number")

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// Adds a breakpoint, reporting false if one already exists at addr
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return ErrNoBreakpoint
	}

	dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
	return nil
}

func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return ErrNoWatchpoint
	}

	dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
	return nil
}

// Prints count words starting at addr, using the assembled source when the
// symbol table has it and a disassembly otherwise.
func (dbg *Debugger) PrintSource(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	for i := uint16(0); i < count; i++ {
		a := addr + i

		if dbg.SymTable != nil {
			if label, exists := dbg.SymTable.Labels[a]; exists {
				fmt.Fprintf(w, "%s:\n", label)
			}
		}

		marker := " "
		if a == mc.Program {
			marker = ">"
		}

		word := mc.Memory[a]

		if dbg.SymTable != nil {
			if line, exists := dbg.SymTable.Lines[a]; exists {
				fmt.Fprintf(w, "%s[%06o] %06o  %s\n", marker, a, word, line)
				continue
			}
		}

		fmt.Fprintf(w, "%s[%06o] %06o  ; %s\n", marker, a, word, machine.Decode(word))
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	w := dbg.out()

	for i := uint16(0); i < count; i++ {
		if i == 0 {
			fmt.Fprintf(w, "[%06o]", addr)
		} else if i%4 == 0 {
			fmt.Fprintf(w, "\n[%06o]", addr+i)
		}

		fmt.Fprintf(w, " %s", encoding.FormatOctal(mc.Memory[addr+i]))
	}

	fmt.Fprintln(w)
}

type registerView struct {
	PC     string
	IR     string
	R      [4]string
	X      [4]string
	Halted bool
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	view := registerView{
		PC:     encoding.FormatOctal(mc.Program),
		IR:     fmt.Sprintf("%s (%s)", encoding.FormatOctal(mc.Instruction), machine.Decode(mc.Instruction)),
		Halted: mc.Halted,
	}

	for i := range mc.Registers {
		view.R[i] = encoding.FormatOctal(mc.Registers[i])
		view.X[i] = encoding.FormatOctal(mc.Index[i])
	}

	pp.Fprintln(dbg.out(), view)
}

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

package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/lassandro/go6461/pkg/assembler"
	"github.com/lassandro/go6461/pkg/debugger"
	"github.com/lassandro/go6461/pkg/encoding"
	"github.com/lassandro/go6461/pkg/machine"
)

type shell struct {
	dbg     *debugger.Debugger
	mc      *machine.Machine
	image   assembler.LoadImage
	prompt  *prompt
	out     io.Writer
	lastcmd []string
	quit    bool
}

func newShell(mc *machine.Machine, image assembler.LoadImage) *shell {
	sh := &shell{mc: mc, image: image, prompt: newPrompt()}

	sh.dbg = &debugger.Debugger{
		HandleBreak: sh.handleBreak,
		HandleRead:  sh.handleWatch,
		HandleWrite: sh.handleWatch,
	}

	mc.Debugger = sh.dbg

	return sh
}

func (sh *shell) println(a ...interface{}) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *shell) printf(format string, a ...interface{}) {
	fmt.Fprintf(sh.out, format, a...)
}

// Resolves an address given in any number form the assembler accepts, or as
// a label from the symbol table.
func lookupAddress(dbg *debugger.Debugger, token string) (uint16, error) {
	if value, err := assembler.ResolveNumber(token); err == nil {
		if value < 0 || value > assembler.MaxAddress {
			return 0, fmt.Errorf("Address '%s' out of range", token)
		}

		return uint16(value), nil
	}

	if dbg != nil && dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if label == token {
				return addr, nil
			}
		}
	}

	return 0, fmt.Errorf("Unable to find '%s'", token)
}

func parseValue(token string) (uint16, error) {
	value, err := assembler.ResolveNumber(token)

	if err != nil {
		return 0, fmt.Errorf("Invalid value '%s'", token)
	}

	if value < assembler.MinData || value > assembler.MaxData {
		return 0, fmt.Errorf("Value '%s' out of range", token)
	}

	return encoding.Mask(value, encoding.WordBits), nil
}

func parseCount(token string) (uint16, error) {
	value, err := strconv.ParseUint(token, 10, 16)

	if err != nil {
		return 0, fmt.Errorf("Invalid count '%s'", token)
	}

	return uint16(value), nil
}

func watchName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	default:
		return "readwrite"
	}
}

func (sh *shell) debugBreak(args []string) {
	const usage = "break [add|list|rm|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [address|label]"

		if len(args) != 1 {
			sh.println(usage)
			return
		}

		addr, err := lookupAddress(sh.dbg, args[0])

		if err != nil {
			sh.println(err)
			return
		}

		if sh.dbg.AddBreakpoint(addr) {
			sh.printf("Breakpoint added [%06o]\n", addr)
		}

	case "l", "ls", "list":
		for i, breakpoint := range sh.dbg.Breakpoints {
			sh.printf("#%d: %06o\n", i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break rm [#]"

		if len(args) != 1 {
			sh.println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			sh.println(usage)
			return
		}

		if err := sh.dbg.RemoveBreakpoint(i); err != nil {
			sh.println(err)
			return
		}

		sh.printf("Breakpoint removed [%d]\n", i)

	case "clear":
		sh.dbg.Breakpoints = nil
		sh.println("Breakpoints reset")

	default:
		sh.printf("break: '%s' is not a valid command\n", cmd)
		sh.println(usage)
	}
}

func (sh *shell) debugWatch(args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [address|label] [read|write|readwrite]"

		if len(args) != 2 {
			sh.println(usage)
			return
		}

		addr, err := lookupAddress(sh.dbg, args[0])

		if err != nil {
			sh.println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			sh.println(usage)
			return
		}

		if sh.dbg.AddWatchpoint(addr, wtype) {
			sh.printf("Watchpoint added [%06o] (%s)\n", addr, watchName(wtype))
		}

	case "l", "ls", "list":
		for i, watchpoint := range sh.dbg.Watchpoints {
			sh.printf(
				"#%d: %06o %s\n", i, watchpoint.Addr, watchName(watchpoint.Type),
			)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			sh.println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			sh.println(usage)
			return
		}

		if err := sh.dbg.RemoveWatchpoint(i); err != nil {
			sh.println(err)
			return
		}

		sh.printf("Watchpoint removed [%d]\n", i)

	case "clear":
		sh.dbg.Watchpoints = nil
		sh.println("Watchpoints reset")

	default:
		sh.printf("watch: '%s' is not a valid command\n", cmd)
		sh.println(usage)
	}
}

func (sh *shell) debugReg(args []string) {
	const usage = "register [R#|X#|PC] [value]"
	state := &sh.mc.State

	if len(args) == 0 {
		sh.dbg.PrintRegisters(state)
		return
	}

	if len(args) != 2 {
		sh.println(usage)
		return
	}

	value, err := parseValue(args[1])

	if err != nil {
		sh.println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch name {
	case "R0", "R1", "R2", "R3":
		state.Registers[name[1]-'0'] = value
	case "X1", "X2", "X3":
		state.Index[name[1]-'0'] = value
	case "PC":
		state.Program = value
	default:
		sh.println("Invalid register")
		return
	}

	sh.printf("\033[1m%s:\033[0m %06o\n", name, value)
}

// Parses "[address|label] [#]", starting at the program counter by default
func (sh *shell) addressRange(args []string, size uint16) (uint16, uint16, error) {
	addr := sh.mc.State.Program

	if len(args) > 0 {
		value, err := lookupAddress(sh.dbg, args[0])

		if err != nil {
			return 0, 0, err
		}

		addr = value
	}

	if len(args) > 1 {
		count, err := parseCount(args[1])

		if err != nil {
			return 0, 0, err
		}

		size = count
	}

	return addr, size, nil
}

func (sh *shell) debugSource(args []string) {
	const usage = "source [address|label] [#]"

	if len(args) > 2 {
		sh.println(usage)
		return
	}

	if sh.dbg.SymTable == nil {
		sh.println("No symbol table loaded, showing disassembly")
	}

	addr, size, err := sh.addressRange(args, 3)

	if err != nil {
		sh.println(err)
		return
	}

	sh.dbg.PrintSource(&sh.mc.State, addr, size)
}

func (sh *shell) debugMemory(args []string) {
	const usage = "memory [address|label] [#]"

	if len(args) > 2 {
		sh.println(usage)
		return
	}

	addr, size, err := sh.addressRange(args, 1)

	if err != nil {
		sh.println(err)
		return
	}

	sh.dbg.PrintMem(&sh.mc.State, addr, size)
}

func (sh *shell) debugLabels(args []string) {
	if sh.dbg.SymTable == nil {
		sh.println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(sh.dbg.SymTable.Labels))
	for addr := range sh.dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		sh.printf("\033[1m[%06o]\033[0m %s\n", addr, sh.dbg.SymTable.Labels[addr])
	}
}

func (sh *shell) debugJump(args []string) {
	const usage = "jump [address|label]"

	if len(args) != 1 {
		sh.println(usage)
		return
	}

	addr, err := lookupAddress(sh.dbg, args[0])

	if err != nil {
		sh.println(err)
		return
	}

	sh.mc.State.Program = addr
	sh.printf("\033[1mPC:\033[0m %06o\n", addr)
}

func (sh *shell) debugSet(args []string) {
	const usage = "set [address|label] [value]"

	if len(args) != 2 {
		sh.println(usage)
		return
	}

	addr, err := lookupAddress(sh.dbg, args[0])

	if err != nil {
		sh.println(err)
		return
	}

	value, err := parseValue(args[1])

	if err != nil {
		sh.println(err)
		return
	}

	sh.mc.State.Memory[addr] = value
	sh.dbg.PrintMem(&sh.mc.State, addr, 1)
}

func (sh *shell) debugReset() {
	if err := sh.mc.Load(sh.image); err != nil {
		sh.println(err)
		return
	}

	sh.printf("Machine reset, \033[1mPC:\033[0m %06o\n", sh.mc.State.Program)
}

// Runs the command loop until the user resumes or quits. banner is printed
// once the session output is ready.
func (sh *shell) repl(banner func()) {
	if err := sh.prompt.enterRawTerm(); err != nil {
		glog.Warning(err)
	}

	defer func() {
		sh.prompt.exitRawTerm()
		sh.dbg.Out = nil
	}()

	sh.out = sh.prompt.out()
	sh.dbg.Out = sh.out

	if banner != nil {
		banner()
	}

	for {
		line, err := sh.prompt.readLine()

		if err != nil {
			if err != io.EOF {
				glog.Error(err)
			}

			sh.println()
			sh.quit = true
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(sh.lastcmd) == 0 {
				continue
			}
			args = sh.lastcmd
		} else {
			sh.lastcmd = args
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			sh.debugBreak(args)

		case "w", "wp", "watch", "watchpoint":
			sh.debugWatch(args)

		case "r", "reg", "register", "registers":
			sh.debugReg(args)

		case "s", "src", "source":
			sh.debugSource(args)

		case "l", "label", "labels":
			sh.debugLabels(args)

		case "j", "jmp", "jump":
			sh.debugJump(args)

		case "m", "mem", "memory":
			sh.debugMemory(args)

		case "set":
			sh.debugSet(args)

		case "c", "continue":
			sh.dbg.Break.Store(false)
			return

		case "n", "next":
			sh.dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			sh.quit = true
			return

		case "clear":
			sh.printf("\033[H\033[2J")

		case "reset":
			sh.debugReset()

		default:
			sh.printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (sh *shell) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	sh.repl(func() {
		if !dbg.Break.Load() {
			sh.println("Program stopped")
		}

		dbg.PrintSource(&mc.State, mc.State.Program, 1)
	})
}

func (sh *shell) handleWatch(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	sh.repl(func() {
		sh.println("Program stopped")
		dbg.PrintMem(&mc.State, addr, 1)
	})
}

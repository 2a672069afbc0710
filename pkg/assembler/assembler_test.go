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

package assembler_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/go6461/pkg/assembler"
)

type testCase struct {
	Name    string
	Input   string
	Options assembler.Options
	Output  map[int]string
	Labels  map[string]int
}

type failCase struct {
	Name   string
	Input  string
	Error  error
	Output map[int]string
}

func assemble(input string, opts assembler.Options) *assembler.Program {
	program, err := assembler.AssembleSource(strings.NewReader(input), opts)

	if err != nil {
		panic(err)
	}

	return program
}

func checkImage(t *testing.T, image assembler.LoadImage, want map[int]string) {
	for addr, word := range image {
		expected, exists := want[addr]

		if !exists {
			t.Fatalf(
				"Unexpected word\n"+
					"want:<none>\n"+
					"have:%s (image[%06o])",
				word,
				addr,
			)
		} else if word.String() != expected {
			t.Fatalf(
				"Word encoding mismatch\n"+
					"want:%s (image[%06o])\n"+
					"have:%s",
				expected,
				addr,
				word,
			)
		}
	}

	for addr, expected := range want {
		if _, exists := image[addr]; !exists {
			t.Fatalf(
				"Missing word\n"+
					"want:%s (image[%06o])\n"+
					"have:<none>",
				expected,
				addr,
			)
		}
	}
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	program := assemble(test.Input, test.Options)

	if len(program.Errors) > 0 {
		t.Fatal(program.Errors[0])
	}

	checkImage(t, program.Image, test.Output)

	if test.Labels != nil {
		if have := program.Labels.Map(); !reflect.DeepEqual(have, test.Labels) {
			t.Fatalf("Label table mismatch\nwant:%v\nhave:%v", test.Labels, have)
		}
	}

	if lines, have := len(assemblerLines(test.Input)), len(program.Listing); lines != have {
		t.Fatalf("Listing length mismatch\nwant:%d\nhave:%d", lines, have)
	}
}

func testAssemblerFail(t *testing.T, test *failCase) {
	program := assemble(test.Input, assembler.Options{})

	if test.Error == nil {
		panic("Fail case missing error value")
	}

	errs := program.Errors

	if len(errs) == 0 {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if len(errs) > 1 {
		errTypes := make([]reflect.Type, 0, len(errs))
		for _, err := range errs {
			errTypes = append(errTypes, reflect.TypeOf(err))
		}

		t.Fatalf(
			"%s produced multiple errors:\n\twant:%T (test.Error)\n\thave:%v",
			t.Name(),
			test.Error,
			errTypes,
		)
	}

	if reflect.TypeOf(errs[0]) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T",
			t.Name(),
			test.Error,
			errs[0],
		)
	}

	if _, ok := errs[0].(assembler.TokenError); !ok {
		t.Fatalf("%T does not carry a position", errs[0])
	}

	checkImage(t, program.Image, test.Output)

	annotated := false
	for _, line := range program.Listing {
		if line.Err != nil {
			annotated = true

			if !strings.Contains(line.String(), " ; ERROR: ") {
				t.Fatalf("Listing row missing annotation\nhave:%q", line.String())
			}
		}
	}

	if !annotated {
		t.Fatal("No listing row carries the error")
	}
}

func assemblerLines(input string) []string {
	lines, err := assembler.ReadSource(strings.NewReader(input))

	if err != nil {
		panic(err)
	}

	return lines
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFail(t, &test)
			})
		}
	})
}

// LDR  |000001  |R  |IX |I|Address   | Load register from memory
// LDA  |000011  |R  |IX |I|Address   | Load register with address
// JZ   |001000  |R  |IX |I|Address   | Jump if register is zero
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LDR Label",
			Input: `
			A: Data 5
			LDR 0,0,A
			`,
			Output: map[int]string{
				0: "000005",
				1: "002000",
			},
			Labels: map[string]int{"A": 0},
		},
		{
			Name: "LDR Fields",
			Input: `
			LDR 1,2,5
			`,
			Output: map[int]string{0: "002605"},
		},
		{
			Name: "LDR Indirect",
			Input: `
			LDR 3,3,31,I
			`,
			Output: map[int]string{0: "003777"},
		},
		{
			Name: "LDR Trailing Comma",
			Input: `
			LDR 0,0,3,
			LDR 0,0,3,,
			`,
			Output: map[int]string{0: "002003", 1: "002003"},
		},
		{
			Name: "LDR Spaced Operands",
			Input: `
			LDR 1, 2, 5
			`,
			Output: map[int]string{0: "002605"},
		},
		{
			Name: "LDR Forward Label",
			Input: `
			LDR 0,0,B
			B: Data 7
			`,
			Output: map[int]string{
				0: "002001",
				1: "000007",
			},
			Labels: map[string]int{"B": 1},
		},
		{
			Name: "LDR Hex Address",
			Input: `
			LDR 0,0,0x1F
			`,
			Output: map[int]string{0: "002037"},
		},
		{
			Name: "LDR Octal Address",
			Input: `
			LDR 0,0,0o17
			`,
			Output: map[int]string{0: "002017"},
		},
		{
			Name: "LDA",
			Input: `
			LDA 2,0,10
			`,
			Output: map[int]string{0: "007012"},
		},
		{
			Name: "JZ Indirect",
			Input: `
			JZ 0,1,7,I
			`,
			Output: map[int]string{0: "020147"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "LDR Missing Address",
			Input: `
			LDR 0,0
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "LDR Missing Operands",
			Input: `
			LDR
			HLT
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{1: "000000"},
		},
		{
			Name: "LDR Extra Operands",
			Input: `
			LDR 0,0,1,I,I
			`,
			Error:  &assembler.ExtraOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "LDR Register Range",
			Input: `
			LDR 4,0,1
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
		{
			Name: "LDA Index Range",
			Input: `
			LDA 0,4,1
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
		{
			Name: "LDR Register Label",
			Input: `
			A: Data 1
			LDR A,0,1
			`,
			Error:  &assembler.UnresolvedOperandError{},
			Output: map[int]string{0: "000001"},
		},
		{
			Name: "LDR Negative Address",
			Input: `
			LDR 0,0,-1
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
		{
			Name: "JZ Undefined Label",
			Input: `
			JZ 0,0,NOWHERE
			HLT
			`,
			Error:  &assembler.UnresolvedOperandError{},
			Output: map[int]string{1: "000000"},
		},
	})
}

// STR  |000010  |R  |IX |I|Address   | Store register to memory
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestStore(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "STR Without Index",
			Input: `
			STR 1,20
			`,
			Output: map[int]string{0: "004424"},
		},
		{
			Name: "STR Index",
			Input: `
			STR 1,1,20
			`,
			Output: map[int]string{0: "004524"},
		},
		{
			Name: "STR Indirect",
			Input: `
			STR 1,1,20,I
			`,
			Output: map[int]string{0: "004564"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "STR Missing Address",
			Input: `
			STR 1
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "STR Register Range",
			Input: `
			STR 7,1,20
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
	})
}

// LDX  |100001  |00 |IX |I|Address   | Load index register from memory
// STX  |010010  |00 |IX |I|Address   | Store index register to memory
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestIndex(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LDX",
			Input: `
			LDX 1,5
			`,
			Output: map[int]string{0: "102105"},
		},
		{
			Name: "LDX Indirect",
			Input: `
			LDX 3,31,I
			`,
			Output: map[int]string{0: "102377"},
		},
		{
			Name: "STX Indirect Wrapped Address",
			Input: `
			STX 2,200,X
			`,
			Output: map[int]string{0: "044250"},
		},
		{
			Name: "STX Trailing Comma",
			Input: `
			STX 2,5,
			`,
			Output: map[int]string{0: "044205"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "LDX Index Range",
			Input: `
			LDX 4,100
			HLT
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{1: "000000"},
		},
		{
			Name: "STX Index Zero",
			Input: `
			STX 0,5
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
		{
			Name: "LDR Trailing Comma Missing Address",
			Input: `
			LDR 0,0,
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "STX Extra Operands",
			Input: `
			STX 1,5,I,I
			`,
			Error:  &assembler.ExtraOperandError{},
			Output: map[int]string{},
		},
	})
}

// HLT  |000000  |0000000000          | Halt
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestHalt(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "HLT",
			Input: `
			HLT
			`,
			Output: map[int]string{0: "000000"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "HLT Operand",
			Input: `
			HLT 5
			`,
			Error:  &assembler.ExtraOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "Unknown Mnemonic",
			Input: `
			FOO 1,2
			HLT
			`,
			Error:  &assembler.UnknownMnemonicError{},
			Output: map[int]string{1: "000000"},
		},
		{
			Name: "Lowercase Mnemonic",
			Input: `
			hlt
			`,
			Error:  &assembler.UnknownMnemonicError{},
			Output: map[int]string{},
		},
	})
}

func TestLoc(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LOC Octal",
			Input: `
			LOC 0o10
			HLT
			`,
			Output: map[int]string{8: "000000"},
		},
		{
			Name: "LOC Decimal",
			Input: `
			LOC 10
			HLT
			`,
			Output: map[int]string{10: "000000"},
		},
		{
			Name: "LOC Hex",
			Input: `
			LOC 0x10
			Data 1
			`,
			Output: map[int]string{16: "000001"},
		},
		{
			Name: "LOC Multiple",
			Input: `
			LOC 100
			A: Data 1
			LOC 6
			B: Data A
			`,
			Output: map[int]string{
				100: "000001",
				6:   "000144",
			},
			Labels: map[string]int{"A": 100, "B": 6},
		},
		{
			Name: "LOC Overlap",
			Input: `
			Data 1
			LOC 0
			Data 2
			`,
			Output: map[int]string{0: "000002"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "LOC Label",
			Input: `
			A:
			LOC A
			`,
			Error:  &assembler.InvalidLocationError{},
			Output: map[int]string{},
		},
		{
			Name: "LOC Negative",
			Input: `
			LOC -1
			HLT
			`,
			Error:  &assembler.InvalidLocationError{},
			Output: map[int]string{0: "000000"},
		},
		{
			Name: "LOC Oversized",
			Input: `
			LOC 70000
			`,
			Error:  &assembler.InvalidLocationError{},
			Output: map[int]string{},
		},
		{
			Name: "LOC Missing",
			Input: `
			LOC
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "Address Overflow",
			Input: `
			LOC 65535
			HLT
			HLT
			`,
			Error:  &assembler.AddressOverflowError{},
			Output: map[int]string{65535: "000000"},
		},
	})
}

func TestData(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Data Decimal",
			Input: `
			Data 5
			`,
			Output: map[int]string{0: "000005"},
		},
		{
			Name: "Data Leading Zero Decimal",
			Input: `
			Data 017
			`,
			Output: map[int]string{0: "000021"},
		},
		{
			Name: "Data Octal",
			Input: `
			Data 0o17
			`,
			Output: map[int]string{0: "000017"},
		},
		{
			Name: "Data Hex",
			Input: `
			Data 0x1F
			`,
			Output: map[int]string{0: "000037"},
		},
		{
			Name: "Data Negative",
			Input: `
			Data -1
			`,
			Output: map[int]string{0: "177777"},
		},
		{
			Name: "Data Word Limit",
			Input: `
			Data 65535
			`,
			Output: map[int]string{0: "177777"},
		},
		{
			Name: "Data Self Label",
			Input: `
			LOC 20
			X: Data X
			`,
			Output: map[int]string{20: "000024"},
		},
	})

	testFail(t, []failCase{
		{
			Name: "Data Undefined Label",
			Input: `
			Data undefined_label
			`,
			Error:  &assembler.UnresolvedOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "Data Missing",
			Input: `
			Data
			HLT
			`,
			Error:  &assembler.MissingOperandError{},
			Output: map[int]string{1: "000000"},
		},
		{
			Name: "Data Invalid Hex",
			Input: `
			Data 0x
			`,
			Error:  &assembler.UnresolvedOperandError{},
			Output: map[int]string{},
		},
		{
			Name: "Data Oversized",
			Input: `
			Data 65536
			`,
			Error:  &assembler.OperandRangeError{},
			Output: map[int]string{},
		},
		{
			Name: "Data Extra",
			Input: `
			Data 1 2
			`,
			Error:  &assembler.ExtraOperandError{},
			Output: map[int]string{},
		},
	})
}

func TestLabel(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Label Only",
			Input: `
			START:
			HLT
			`,
			Output: map[int]string{0: "000000"},
			Labels: map[string]int{"START": 0},
		},
		{
			Name: "Label Statements",
			Input: `
			A: LDR 0,0,1
			B: HLT
			Data A
			`,
			Output: map[int]string{
				0: "002001",
				1: "000000",
				2: "000000",
			},
			Labels: map[string]int{"A": 0, "B": 1},
		},
		{
			Name: "Legacy Label Statements",
			Input: `
			A: LDR 0,0,1
			B: HLT
			Data A
			`,
			Options: assembler.Options{LegacyLabels: true},
			Output: map[int]string{
				0: "000000",
				1: "000000",
			},
			Labels: map[string]int{"A": 0, "B": 0},
		},
		{
			Name: "Case Sensitive",
			Input: `
			a: Data 1
			A: Data 2
			Data a
			Data A
			`,
			Output: map[int]string{
				0: "000001",
				1: "000002",
				2: "000000",
				3: "000001",
			},
			Labels: map[string]int{"a": 0, "A": 1},
		},
	})

	testFail(t, []failCase{
		{
			Name: "Redeclared Label",
			Input: `
			A: Data 1
			A: Data 2
			Data A
			`,
			Error: &assembler.RedeclaredLabelError{},
			Output: map[int]string{
				0: "000001",
				1: "000002",
				2: "000000",
			},
		},
	})
}

func TestComment(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Comments",
			Input: `
			; header comment
			Data 1 ; trailing comment
			   ;
			HLT;no space
			`,
			Output: map[int]string{
				0: "000001",
				1: "000000",
			},
		},
	})
}

// Every label must name the address its statement is assembled at
func TestPassAgreement(t *testing.T) {
	input := `
	LOC 4
	A: Data 1
	B:
	LDR 0,0,A
	LOC 0x20
	C: STR 1,B
	D: LDX 4,0       ; fails, but still takes an address
	E: JZ 0,0,E
	F: HLT
	`

	program := assemble(input, assembler.Options{})

	for _, name := range program.Labels.Names() {
		addr, _ := program.Labels.Lookup(name)

		found := false
		for _, line := range program.Listing {
			if !strings.Contains(line.Source, name+":") {
				continue
			}

			found = true

			switch line.Kind {
			case assembler.LISTING_WORD, assembler.LISTING_ERROR:
				if line.Address != addr {
					t.Fatalf(
						"Label address mismatch (%s)\nwant:%06o\nhave:%06o",
						name,
						addr,
						line.Address,
					)
				}
			}
		}

		if !found {
			t.Fatalf("Label %s missing from listing", name)
		}
	}

	want := map[string]int{"A": 4, "B": 5, "C": 32, "D": 33, "E": 34, "F": 35}
	if have := program.Labels.Map(); !reflect.DeepEqual(have, want) {
		t.Fatalf("Label table mismatch\nwant:%v\nhave:%v", want, have)
	}
}

func TestDeterministic(t *testing.T) {
	input := `
	LOC 6
	A: Data 5
	LDR 1,2,A
	STX 2,200,X
	Data nowhere
	HLT
	`

	first := assemble(input, assembler.Options{})
	second := assemble(input, assembler.Options{})

	if !reflect.DeepEqual(first.Image, second.Image) {
		t.Fatalf("Image mismatch\nwant:%v\nhave:%v", first.Image, second.Image)
	}

	if !reflect.DeepEqual(first.Listing.Lines(), second.Listing.Lines()) {
		t.Fatalf(
			"Listing mismatch\nwant:%q\nhave:%q",
			first.Listing.Lines(),
			second.Listing.Lines(),
		)
	}
}

func TestListingRows(t *testing.T) {
	input := "LOC 8\nTOP:\n  Data 5\nData undefined_label\nLDX 4,100\n\nHLT"

	program := assemble(input, assembler.Options{})

	want := []string{
		"              LOC 8",
		"      TOP:",
		"000010 000005   Data 5",
		"000011        Data undefined_label ; ERROR: Undefined label 'undefined_label'",
		"000012        LDX 4,100 ; ERROR: Index register 4 out of range 1..3",
		"",
		"000013 000000 HLT",
	}

	have := program.Listing.Lines()

	if !reflect.DeepEqual(have, want) {
		t.Fatalf("Listing mismatch\nwant:%q\nhave:%q", want, have)
	}

	if len(program.Errors) != 2 {
		t.Fatalf("Error count mismatch\nwant:2\nhave:%d", len(program.Errors))
	}

	if pos := program.Errors[0].(assembler.TokenError).GetPosition(); pos.Line != 4 || pos.Column != 1 {
		t.Fatalf("Error position mismatch\nwant:04:01\nhave:%02d:%02d", pos.Line, pos.Column)
	}
}

func TestSymTable(t *testing.T) {
	input := `
	LOC 6
	A: Data 5
	LDR 1,2,A
	B:
	C: HLT
	`

	program := assemble(input, assembler.Options{})
	symtable := assembler.NewSymTable("prog.asm", program)

	wantLines := map[uint16]string{
		6: "A: Data 5",
		7: "LDR 1,2,A",
		8: "C: HLT",
	}

	if !reflect.DeepEqual(symtable.Lines, wantLines) {
		t.Fatalf("Symtable lines mismatch\nwant:%v\nhave:%v", wantLines, symtable.Lines)
	}

	wantLabels := map[uint16]string{
		6: "A",
		8: "B",
	}

	if !reflect.DeepEqual(symtable.Labels, wantLabels) {
		t.Fatalf("Symtable labels mismatch\nwant:%v\nhave:%v", wantLabels, symtable.Labels)
	}
}
